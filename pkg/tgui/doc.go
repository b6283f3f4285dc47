// Package tgui provides small helpers for building Telegram messages:
// HTML escaping/wrapping, inline keyboards, and callback-data packing.
//
// Keep rendered payloads below Telegram's 4096-character message limit;
// the formatting layer is responsible for keeping its output short.
package tgui
