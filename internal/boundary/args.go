package boundary

import (
	"bytes"
	"encoding/json"
	"fmt"

	"expensetracker/internal/core"
)

func expectArgs(req Request, n int) error {
	if len(req.Args) != n {
		return core.Errorf(core.CodeValidation, "%s expects %d argument(s), got %d", req.Channel, n, len(req.Args))
	}
	return nil
}

// decodeArg strictly decodes the i-th positional argument into v.
func decodeArg(req Request, i int, name string, v any) error {
	dec := json.NewDecoder(bytes.NewReader(req.Args[i]))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.WrapError(core.CodeValidation, fmt.Sprintf("invalid %s", name), err)
	}
	return nil
}

func stringArg(req Request, i int, name string) (string, error) {
	var s string
	if err := decodeArg(req, i, name, &s); err != nil {
		return "", err
	}
	return s, nil
}

func idArg(req Request, i int, name string) (int64, error) {
	var id int64
	if err := decodeArg(req, i, name, &id); err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, core.Errorf(core.CodeValidation, "invalid %s %d", name, id)
	}
	return id, nil
}
