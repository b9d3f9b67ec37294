package boundary

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"expensetracker/internal/core"
)

// maxRequestSize bounds one request line; receipts travel base64 encoded.
const maxRequestSize = 64 << 20

// Serve reads newline-delimited JSON requests from r and writes one JSON
// response line per request to w, in order, until r is exhausted or ctx is
// done. A line that is not a valid request gets a validation response.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxRequestSize)
	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp = errorResponse(salvageID(line), core.WrapError(core.CodeValidation, "malformed request", err))
		} else {
			resp = h.Handle(ctx, req)
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flush response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// salvageID recovers the id of a request whose other fields do not decode,
// so the caller can still match the error to its call.
func salvageID(line []byte) json.RawMessage {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if json.Unmarshal(line, &head) != nil {
		return nil
	}
	return head.ID
}
