package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ad/go-telegram-recipes/internal/fsm"
)

// MaxTokenBytes is the Telegram callback_data limit.
const MaxTokenBytes = 64

const tokenDelimiter = ":"

// Token is one decoded navigation intent. Page is only meaningful for
// actions whose layout carries a page.
type Token struct {
	Action    fsm.Action
	Namespace string
	Params    []string
	Page      int
}

type tokenLayout struct {
	namespace bool
	params    int
	page      bool
}

var tokenLayouts = map[fsm.Action]tokenLayout{
	fsm.ActionMenu:       {namespace: true, page: true},
	fsm.ActionNav:        {namespace: true, page: true},
	fsm.ActionSelect:     {namespace: true, params: 1, page: true},
	fsm.ActionResultsNav: {namespace: true, params: 1, page: true},
	fsm.ActionOpen:       {params: 1},
	fsm.ActionSave:       {params: 1},
	fsm.ActionUnsave:     {namespace: true, params: 1},
	fsm.ActionStepsOpen:  {params: 1},
	fsm.ActionStepsNav:   {params: 1, page: true},
	fsm.ActionBack:       {namespace: true},
	fsm.ActionRandom:     {},
	fsm.ActionNoop:       {},
}

func (l tokenLayout) fields() int {
	n := 1 + l.params
	if l.namespace {
		n++
	}
	if l.page {
		n++
	}
	return n
}

// EncodeToken serializes t. It never truncates: a token longer than
// MaxTokenBytes after escaping fails with ErrEncoding.
func EncodeToken(t Token) (string, error) {
	layout, ok := tokenLayouts[t.Action]
	if !ok {
		return "", fmt.Errorf("%w: unknown action %q", ErrEncoding, t.Action)
	}
	if len(t.Params) != layout.params {
		return "", fmt.Errorf("%w: action %q takes %d params, got %d", ErrEncoding, t.Action, layout.params, len(t.Params))
	}
	if !layout.namespace && t.Namespace != "" {
		return "", fmt.Errorf("%w: action %q takes no namespace", ErrEncoding, t.Action)
	}

	fields := make([]string, 0, layout.fields())
	fields = append(fields, string(t.Action))
	if layout.namespace {
		fields = append(fields, escapeTokenField(t.Namespace))
	}
	for _, p := range t.Params {
		fields = append(fields, escapeTokenField(p))
	}
	if layout.page {
		fields = append(fields, strconv.Itoa(t.Page))
	}

	s := strings.Join(fields, tokenDelimiter)
	if len(s) > MaxTokenBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrEncoding, len(s))
	}
	return s, nil
}

// MustEncodeToken is for fixed tokens known to fit, like "random" or "back:menus".
func MustEncodeToken(t Token) string {
	s, err := EncodeToken(t)
	if err != nil {
		panic(err)
	}
	return s
}

func DecodeToken(s string) (Token, error) {
	if s == "" || len(s) > MaxTokenBytes {
		return Token{}, fmt.Errorf("%w: length %d", ErrMalformedToken, len(s))
	}

	fields := strings.Split(s, tokenDelimiter)
	action := fsm.Action(fields[0])
	layout, ok := tokenLayouts[action]
	if !ok {
		return Token{}, fmt.Errorf("%w: unknown action %q", ErrMalformedToken, fields[0])
	}
	if len(fields) != layout.fields() {
		return Token{}, fmt.Errorf("%w: action %q expects %d fields, got %d", ErrMalformedToken, action, layout.fields(), len(fields))
	}

	t := Token{Action: action}
	rest := fields[1:]
	if layout.namespace {
		ns, err := url.PathUnescape(rest[0])
		if err != nil {
			return Token{}, fmt.Errorf("%w: namespace: %v", ErrMalformedToken, err)
		}
		t.Namespace = ns
		rest = rest[1:]
	}
	for i := 0; i < layout.params; i++ {
		p, err := url.PathUnescape(rest[i])
		if err != nil {
			return Token{}, fmt.Errorf("%w: param %d: %v", ErrMalformedToken, i, err)
		}
		t.Params = append(t.Params, p)
	}
	if layout.page {
		page, err := strconv.Atoi(rest[layout.params])
		if err != nil {
			return Token{}, fmt.Errorf("%w: page %q", ErrMalformedToken, rest[layout.params])
		}
		t.Page = page
	}
	return t, nil
}

// Param returns the i-th parameter or "".
func (t Token) Param(i int) string {
	if i < 0 || i >= len(t.Params) {
		return ""
	}
	return t.Params[i]
}

const upperhex = "0123456789ABCDEF"

// escapeTokenField percent-encodes the delimiter, '%', whitespace and
// control bytes. Other bytes, including UTF-8 sequences, pass through.
func escapeTokenField(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' || c == '%' || c <= ' ' || c == 0x7f {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&15])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
