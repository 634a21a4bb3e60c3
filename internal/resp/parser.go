package resp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type Type byte

const (
	SimpleString Type = '+'
	Error        Type = '-'
	Integer      Type = ':'
	BulkString   Type = '$'
	Array        Type = '*'
)

const (
	MaxBulkLength  = 512 << 20
	MaxArrayLength = 1 << 20
	// MaxNestingDepth bounds how deeply arrays may nest inside one value.
	MaxNestingDepth = 32

	// arrays grow from at most this many slots, whatever the header claims
	arrayPrealloc = 1024
)

var (
	ErrInvalidType   = errors.New("invalid RESP type")
	ErrInvalidFormat = errors.New("invalid RESP format")
	// ErrIncomplete means the buffer ends before the value does; the caller
	// should retry once more bytes have arrived.
	ErrIncomplete = errors.New("incomplete RESP value")
)

type Value struct {
	Type  Type
	Str   string
	Int   int64
	Array []Value
	Null  bool
}

// Parse decodes the value at the start of buf and reports how many bytes it
// occupied. Nothing in buf is retained by the returned Value.
func Parse(buf []byte) (Value, int, error) {
	return parse(buf, 0)
}

func parse(buf []byte, depth int) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch Type(buf[0]) {
	case SimpleString, Error:
		line, n, err := readLine(buf[1:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: Type(buf[0]), Str: string(line)}, n + 1, nil
	case Integer:
		num, n, err := readInt(buf[1:], "integer")
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: Integer, Int: num}, n + 1, nil
	case BulkString:
		return parseBulkString(buf)
	case Array:
		return parseArray(buf, depth)
	default:
		return Value{}, 0, fmt.Errorf("%w: %c", ErrInvalidType, buf[0])
	}
}

func parseBulkString(buf []byte) (Value, int, error) {
	length, n, err := readInt(buf[1:], "bulk string length")
	if err != nil {
		return Value{}, 0, err
	}
	pos := n + 1

	if length == -1 {
		return Value{Type: BulkString, Null: true}, pos, nil
	}
	if length < 0 || length > MaxBulkLength {
		return Value{}, 0, fmt.Errorf("%w: bulk string length %d", ErrInvalidFormat, length)
	}

	end := pos + int(length)
	if len(buf) < end+2 {
		return Value{}, 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Value{}, 0, fmt.Errorf("%w: missing CRLF after bulk string", ErrInvalidFormat)
	}
	return Value{Type: BulkString, Str: string(buf[pos:end])}, end + 2, nil
}

func parseArray(buf []byte, depth int) (Value, int, error) {
	if depth >= MaxNestingDepth {
		return Value{}, 0, fmt.Errorf("%w: arrays nested deeper than %d", ErrInvalidFormat, MaxNestingDepth)
	}
	count, n, err := readInt(buf[1:], "array length")
	if err != nil {
		return Value{}, 0, err
	}
	pos := n + 1

	if count == -1 {
		return Value{Type: Array, Null: true}, pos, nil
	}
	if count < 0 || count > MaxArrayLength {
		return Value{}, 0, fmt.Errorf("%w: array length %d", ErrInvalidFormat, count)
	}

	array := make([]Value, 0, min(int(count), arrayPrealloc))
	for range count {
		v, n, err := parse(buf[pos:], depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		array = append(array, v)
		pos += n
	}
	return Value{Type: Array, Array: array}, pos, nil
}

// readLine returns the bytes before the first CRLF and the length including
// the CRLF.
func readLine(buf []byte) ([]byte, int, error) {
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		return nil, 0, ErrIncomplete
	}
	if i == 0 || buf[i-1] != '\r' {
		return nil, 0, fmt.Errorf("%w: missing CRLF", ErrInvalidFormat)
	}
	return buf[:i-1], i + 1, nil
}

func readInt(buf []byte, what string) (int64, int, error) {
	line, n, err := readLine(buf)
	if err != nil {
		return 0, 0, err
	}
	num, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid %s", ErrInvalidFormat, what)
	}
	return num, n, nil
}

// Parser reads successive values from a stream.
type Parser struct {
	reader io.Reader
	buf    []byte
	chunk  []byte
}

func NewParser(r io.Reader) *Parser {
	return &Parser{
		reader: r,
		chunk:  make([]byte, 4096),
	}
}

func (p *Parser) Parse() (Value, error) {
	for {
		if len(p.buf) > 0 {
			v, n, err := Parse(p.buf)
			if err == nil {
				p.buf = p.buf[n:]
				return v, nil
			}
			if !errors.Is(err, ErrIncomplete) {
				return Value{}, err
			}
		}

		n, err := p.reader.Read(p.chunk)
		p.buf = append(p.buf, p.chunk[:n]...)
		if err != nil {
			if n > 0 {
				continue
			}
			if errors.Is(err, io.EOF) && len(p.buf) > 0 {
				return Value{}, io.ErrUnexpectedEOF
			}
			return Value{}, err
		}
	}
}
