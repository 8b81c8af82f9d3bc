// Package script parses and runs line oriented operation scripts against a
// seekable stream:
//
//	# comment
//	write "hello\n"
//	write bare-word
//	zeros 16
//	read 4 [clean]
//	skip 2 [clean]
//	seek set|cur|end -3
//	clean
//	stat
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	sstm "github.com/sushydev/seekable_stream_go"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("syntax error")

// Kind identifies the stream operation of a script line.
type Kind int

const (
	Write Kind = iota
	Zeros
	Read
	Skip
	Seek
	Clean
	Stat
)

var kindNames = map[string]Kind{
	"write": Write,
	"zeros": Zeros,
	"read":  Read,
	"skip":  Skip,
	"seek":  Seek,
	"clean": Clean,
	"stat":  Stat,
}

var whenceNames = map[string]sstm.Whence{
	"set": sstm.SeekSet,
	"cur": sstm.SeekCur,
	"end": sstm.SeekEnd,
}

// Op is one parsed script line.
type Op struct {
	Line int
	Text string
	Kind Kind

	Data    []byte
	Size    int
	Offset  int64
	Whence  sstm.Whence
	Cleanup bool
}

// Result records the outcome of one Op.
type Result struct {
	Line  int       `yaml:"line"`
	Op    string    `yaml:"op"`
	Error string    `yaml:"error,omitempty"`
	Data  string    `yaml:"data,omitempty"`
	Stat  sstm.Stat `yaml:"stat"`
}

// Parse reads a script. Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		op, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		op.Line = line
		op.Text = text
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	return ops, nil
}

func parseLine(text string) (Op, error) {
	name, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	kind, ok := kindNames[name]
	if !ok {
		return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, name)
	}
	op := Op{Kind: kind}

	switch kind {
	case Write:
		if rest == "" {
			return Op{}, fmt.Errorf("%w: write needs data", ErrSyntax)
		}
		if strings.HasPrefix(rest, `"`) {
			s, err := strconv.Unquote(rest)
			if err != nil {
				return Op{}, fmt.Errorf("%w: bad string %s", ErrSyntax, rest)
			}
			op.Data = []byte(s)
		} else {
			op.Data = []byte(rest)
		}

	case Zeros:
		size, err := parseSize(rest)
		if err != nil {
			return Op{}, err
		}
		op.Size = size

	case Read, Skip:
		args := strings.Fields(rest)
		if len(args) == 0 || len(args) > 2 {
			return Op{}, fmt.Errorf("%w: %s <size> [clean]", ErrSyntax, name)
		}
		size, err := parseSize(args[0])
		if err != nil {
			return Op{}, err
		}
		op.Size = size
		if len(args) == 2 {
			if args[1] != "clean" {
				return Op{}, fmt.Errorf("%w: unexpected %q", ErrSyntax, args[1])
			}
			op.Cleanup = true
		}

	case Seek:
		args := strings.Fields(rest)
		if len(args) != 2 {
			return Op{}, fmt.Errorf("%w: seek set|cur|end <offset>", ErrSyntax)
		}
		whence, ok := whenceNames[args[0]]
		if !ok {
			return Op{}, fmt.Errorf("%w: unknown whence %q", ErrSyntax, args[0])
		}
		offset, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return Op{}, fmt.Errorf("%w: bad offset %q", ErrSyntax, args[1])
		}
		op.Whence = whence
		op.Offset = offset

	case Clean, Stat:
		if rest != "" {
			return Op{}, fmt.Errorf("%w: %s takes no arguments", ErrSyntax, name)
		}
	}

	return op, nil
}

func parseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad size %q", ErrSyntax, s)
	}
	return n, nil
}

// Run executes ops in order. A failing op is recorded and the run continues.
func Run(stream *sstm.Stream, ops []Op) []Result {
	results := make([]Result, 0, len(ops))

	for _, op := range ops {
		res := Result{Line: op.Line, Op: op.Text}

		var err error
		switch op.Kind {
		case Write:
			err = stream.Write(op.Data)
		case Zeros:
			err = stream.WriteZeros(op.Size)
		case Read:
			if op.Size > stream.Stat().FreshSize {
				err = sstm.ErrNoData
				break
			}
			p := make([]byte, op.Size)
			if err = stream.Read(p, op.Cleanup); err == nil {
				res.Data = string(p)
			}
		case Skip:
			err = stream.Skip(op.Size, op.Cleanup)
		case Seek:
			err = stream.Seek(op.Offset, op.Whence)
		case Clean:
			err = stream.Clean()
		case Stat:
		}

		if err != nil {
			res.Error = err.Error()
		}
		res.Stat = stream.Stat()
		results = append(results, res)
	}

	return results
}
