// Package telnet implements the receive side of the telnet protocol as
// TelTap uses it: a filter that strips IAC control sequences from the raw
// byte stream, and a connection manager that keeps a receive-only
// connection alive and hands clean application payloads to a Handler.
//
// The filter does not interpret or answer option negotiation, it only
// removes it. That is all a receive-only feed needs: the payload bytes
// arrive unchanged whether or not options are acknowledged.
package telnet

// Telnet command bytes (RFC 854).
const (
	cmdSE   byte = 240 // end of sub-negotiation
	cmdSB   byte = 250 // begin of sub-negotiation
	cmdWill byte = 251
	cmdWont byte = 252
	cmdDo   byte = 253
	cmdDont byte = 254
	cmdIAC  byte = 255 // escape byte introducing every control sequence
)

// filterMode is the parser position inside a control sequence.
type filterMode int

const (
	// modeNormal: outside any control sequence.
	modeNormal filterMode = iota
	// modeAwaitCommand: IAC seen, waiting for the command byte.
	modeAwaitCommand
	// modeAwaitOption: negotiation command seen, waiting for the option byte.
	modeAwaitOption
	// modeSubNegotiation: inside IAC SB ... payload.
	modeSubNegotiation
	// modeSubNegotiationIAC: IAC seen inside sub-negotiation, waiting to
	// see whether it terminates the sequence.
	modeSubNegotiationIAC
)

// FilterState carries the filter position across chunk boundaries, so a
// control sequence split over two socket reads is still recognized. One
// state belongs to exactly one connection and is discarded with it; a
// fresh connection always starts a fresh state. The zero value is ready
// for use.
type FilterState struct {
	mode filterMode
}

// NewFilterState returns a filter state in normal mode.
func NewFilterState() *FilterState {
	return &FilterState{}
}

// Filter removes telnet IAC control sequences from data and returns the
// remaining application payload. It is a pure transform over (data, state):
// no I/O, no side effects besides advancing the state.
//
// Sequence handling:
//   - IAC WILL/WONT/DO/DONT <option>: dropped (3 bytes)
//   - IAC SB ... IAC SE: dropped entirely, however long
//   - IAC IAC: emits one literal 255
//   - IAC <anything else>: dropped (2 bytes)
//
// A trailing IAC at the end of data is held in the state and completed by
// the first byte of the next call.
func (s *FilterState) Filter(data []byte) []byte {
	out := make([]byte, 0, len(data))

	for _, b := range data {
		switch s.mode {
		case modeNormal:
			if b == cmdIAC {
				s.mode = modeAwaitCommand
				continue
			}
			out = append(out, b)
		case modeAwaitCommand:
			switch b {
			case cmdWill, cmdWont, cmdDo, cmdDont:
				s.mode = modeAwaitOption
			case cmdSB:
				s.mode = modeSubNegotiation
			case cmdIAC:
				// Escaped 255: a single literal data byte.
				out = append(out, cmdIAC)
				s.mode = modeNormal
			default:
				// Generic two-byte command, both bytes dropped.
				s.mode = modeNormal
			}
		case modeAwaitOption:
			// The option byte itself, dropped.
			s.mode = modeNormal
		case modeSubNegotiation:
			if b == cmdIAC {
				s.mode = modeSubNegotiationIAC
			}
		case modeSubNegotiationIAC:
			if b == cmdSE {
				s.mode = modeNormal
				continue
			}
			// Not the terminator. An escaped IAC or parameter data,
			// either way it stays inside the sub-negotiation.
			s.mode = modeSubNegotiation
		}
	}

	return out
}
