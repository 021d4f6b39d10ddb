package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

func qualifiedStructName(v any) string {
	s := fmt.Sprintf("%T", v)
	s = strings.TrimLeft(s, "*")

	return s
}

// decodeArgs decodes worker arguments keeping numbers as json.Number, so
// tenant IDs survive without float rounding.
func decodeArgs(raw []byte) ([]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args []any
	if err := dec.Decode(&args); err != nil {
		return nil, errors.Join(ErrInvalidArgs, err)
	}
	if args == nil {
		args = []any{}
	}
	return args, nil
}
