package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"burnscope/internal/core"
	"burnscope/internal/services"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

// figureRequest is the body of POST /api/figures and of websocket messages.
// Selection is the client's current state; the payload carries the control
// that changed.
type figureRequest struct {
	Event     string          `json:"event"`
	Selection *core.Selection `json:"selection,omitempty"`
	services.Payload
}

func decodeFigureRequest(r io.Reader) (figureRequest, error) {
	var req figureRequest
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return req, nil
}

// resolve turns the request into a dispatchable event and starting selection.
func (req figureRequest) resolve(initial core.Selection) (core.Selection, services.Event, error) {
	ev, err := services.ParseEvent(req.Event)
	if err != nil {
		return core.Selection{}, "", err
	}
	sel := initial
	if req.Selection != nil {
		sel = *req.Selection
	}
	return sel, ev, nil
}

// parseSelectionQuery reads country, from, to and clicks from the query
// string. Missing values fall back to initial; non-numeric years are errors.
func parseSelectionQuery(q url.Values, initial core.Selection) (core.Selection, error) {
	sel := initial
	if v := strings.TrimSpace(q.Get("country")); v != "" {
		sel.Country = sanitizeInput(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"from", &sel.YearFrom},
		{"to", &sel.YearTo},
		{"clicks", &sel.Clicks},
	}
	for _, p := range ints {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return sel, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, p.key, v)
		}
		*p.dst = n
	}
	return sel, nil
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// exportFilename builds a download name such as burned_area_brazil_2002-2023.xlsx.
func exportFilename(sel core.Selection, ext string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(sel.Country) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		name = "selection"
	}
	return fmt.Sprintf("burned_area_%s_%d-%d.%s", name, sel.YearFrom, sel.YearTo, ext)
}

func setAttachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
}
