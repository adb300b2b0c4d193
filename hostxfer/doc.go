// Package hostxfer implements the USB control, bulk, and interrupt
// transfer state machines on top of [chipctl.ChipCtx]: SETUP/DATA/STATUS
// staging with per-stage toggle discipline, NAK/STALL/disconnect
// handling, and endpoint lookup. Every stage issues its own chip tokens.
package hostxfer
