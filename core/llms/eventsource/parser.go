// Package eventsource implements an incremental parser for the
// text/event-stream wire format used by streaming completion providers.
//
// The parser is a pure state machine: it performs no I/O, tolerates chunk
// boundaries falling anywhere (mid-line, mid-field, mid-rune) and produces
// the same event sequence regardless of how the input was split.
package eventsource

import (
	"bytes"
	"strconv"
	"time"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Event is one decoded server-sent event. Data from multiple data: fields is
// joined with newlines, with the trailing joiner stripped.
type Event struct {
	ID   string
	Name string
	Data string
}

type ParserOption func(*Parser)

// WithReconnectIntervalCallback registers a callback for retry: fields. The
// interval is advisory; callers may ignore it.
func WithReconnectIntervalCallback(callback func(time.Duration)) ParserOption {
	return func(p *Parser) { p.onReconnectInterval = callback }
}

// Parser decodes a chunked event stream fed through [Parser.Feed].
//
// Cross-call scan state is held explicitly (buffer, startingPosition,
// startingFieldLength) so partial-feed sequences can be unit tested without
// closures over captured variables.
type Parser struct {
	onEvent             func(Event)
	onReconnectInterval func(time.Duration)

	isFirstChunk bool
	buffer       []byte
	// startingPosition is the number of already-scanned bytes of the current
	// unterminated line, relative to the start of the buffer.
	startingPosition int
	// startingFieldLength is the field-name length found so far in the
	// current unterminated line, or -1 if no colon was seen yet.
	startingFieldLength int
	// discardLineFeed is set when a line was terminated by a carriage return,
	// so a line feed arriving next (possibly in a later chunk) is consumed
	// silently.
	discardLineFeed bool

	eventID   string
	eventName string
	data      []byte
}

// NewParser creates a parser that invokes onEvent for every complete event.
func NewParser(onEvent func(Event), opts ...ParserOption) *Parser {
	p := &Parser{onEvent: onEvent}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Reset discards all buffered bytes and partial event state.
func (p *Parser) Reset() {
	p.isFirstChunk = true
	p.buffer = nil
	p.startingPosition = 0
	p.startingFieldLength = -1
	p.discardLineFeed = false

	p.eventID = ""
	p.eventName = ""
	p.data = nil
}

// Feed consumes the next chunk of the stream, emitting zero or more events.
func (p *Parser) Feed(chunk []byte) {
	p.buffer = append(p.buffer, chunk...)

	// Only a UTF-8 byte order mark is stripped; event streams are always
	// decoded as UTF-8 per the specification.
	if p.isFirstChunk {
		if len(p.buffer) < len(bom) && bytes.HasPrefix(bom, p.buffer) {
			// Too few bytes to tell a byte order mark from content yet.
			return
		}
		if bytes.HasPrefix(p.buffer, bom) {
			p.buffer = p.buffer[len(bom):]
		}
		p.isFirstChunk = false
	}

	length := len(p.buffer)
	position := 0

	for position < length {
		if p.discardLineFeed {
			if p.buffer[position] == '\n' {
				position++
			}
			p.discardLineFeed = false
			continue
		}

		lineLength := -1
		fieldLength := p.startingFieldLength

		for index := position + p.startingPosition; index < length; index++ {
			switch p.buffer[index] {
			case ':':
				if fieldLength < 0 {
					fieldLength = index - position
				}
			case '\r':
				p.discardLineFeed = true
				lineLength = index - position
			case '\n':
				lineLength = index - position
			}
			if lineLength >= 0 {
				break
			}
		}

		if lineLength < 0 {
			p.startingPosition = length - position
			p.startingFieldLength = fieldLength
			break
		}
		p.startingPosition = 0
		p.startingFieldLength = -1

		p.parseLine(p.buffer[position:position+lineLength], fieldLength)

		position += lineLength + 1
	}

	if position == length {
		p.buffer = p.buffer[:0]
	} else if position > 0 {
		p.buffer = p.buffer[position:]
	}
}

func (p *Parser) parseLine(line []byte, fieldLength int) {
	if len(line) == 0 {
		// Blank line terminates the event.
		if len(p.data) > 0 {
			p.onEvent(Event{
				ID:   p.eventID,
				Name: p.eventName,
				// Strip the trailing data joiner.
				Data: string(p.data[:len(p.data)-1]),
			})
			p.data = nil
			p.eventID = ""
		}
		p.eventName = ""
		return
	}

	noValue := fieldLength < 0
	if noValue {
		fieldLength = len(line)
	}
	field := string(line[:fieldLength])

	var value []byte
	if !noValue {
		value = line[fieldLength+1:]
		// A single space after the colon is not part of the value.
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}
	}

	switch field {
	case "data":
		p.data = append(p.data, value...)
		p.data = append(p.data, '\n')
	case "event":
		p.eventName = string(value)
	case "id":
		if !bytes.ContainsRune(value, 0) {
			p.eventID = string(value)
		}
	case "retry":
		if p.onReconnectInterval == nil {
			return
		}
		if retry, err := strconv.Atoi(string(value)); err == nil {
			p.onReconnectInterval(time.Duration(retry) * time.Millisecond)
		}
	}
}
