// Package proxy wires one link/chipctl/hostxfer/enum/hidparser/hiddecoder
// stack per downstream device (mouse, keyboard) into the round-robin poll
// loop that drives the whole core, plus keyboard hotkey dispatch into the
// recoil-compensation sequencer.
package proxy
