package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxLine bounds one request line on the stdio transport. Longer lines are
// answered with INVALID_ARGS and skipped.
const maxLine = 4 * 1024 * 1024

type stdioRequest struct {
	ID json.RawMessage `json:"id,omitempty"`
	MethodCall
}

type stdioReply struct {
	ID json.RawMessage `json:"id,omitempty"`
	Result
}

// ServeStdio reads one JSON MethodCall per line from r and writes one JSON
// reply per line to w, echoing the request's "id". Calls run one at a time
// in arrival order. It returns nil at end of input.
func (h *Handler) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReaderSize(r, 64*1024)
	enc := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, tooLong, readErr := readLine(br, maxLine)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("failed to read request: %w", readErr)
		}

		if tooLong || len(line) > 0 {
			if err := enc.Encode(h.stdioReply(ctx, line, tooLong)); err != nil {
				return fmt.Errorf("failed to write reply: %w", err)
			}
		}
		if readErr != nil {
			return nil
		}
	}
}

func (h *Handler) stdioReply(ctx context.Context, line []byte, tooLong bool) stdioReply {
	var reply stdioReply
	if tooLong {
		reply.Error = &CallError{Code: CodeInvalidArgs, Message: fmt.Sprintf("request exceeds %d bytes", maxLine)}
		return reply
	}

	var req stdioRequest
	if err := json.Unmarshal(line, &req); err != nil {
		reply.Error = &CallError{Code: CodeInvalidArgs, Message: fmt.Sprintf("malformed request: %v", err)}
		return reply
	}
	reply.ID = req.ID
	reply.Result = h.Handle(ctx, req.MethodCall)
	return reply
}

// readLine reads through the next newline and returns the line without its
// terminator. A line longer than limit is consumed without being kept and
// reported as tooLong.
func readLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			// Two extra bytes leave room for "\r\n".
			if len(line) > limit+2 {
				tooLong, line = true, nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		line = bytes.TrimRight(line, "\r\n")
		if tooLong || len(line) > limit {
			return nil, true, err
		}
		return line, false, err
	}
}
