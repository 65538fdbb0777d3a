// Package nlg renders dialog acts to surface text and derives the
// lexicalized act lists written to the corpus.
package nlg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"text/template"

	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

// ErrUnknownAct is returned for an act kind the speaker cannot produce.
var ErrUnknownAct = errors.New("unknown dialog act")

// templateCtx is the data available to every template.
type templateCtx struct {
	Slot  string
	Value string
}

// Renderer turns acts into text. Its template table is parsed once at
// construction and never modified, so a Renderer is safe to share across
// goroutines as long as each caller passes its own random source.
type Renderer struct {
	dom   *domain.Domain
	table map[string][]*template.Template
}

// NewRenderer parses the common and domain templates.
func NewRenderer(d *domain.Domain) (*Renderer, error) {
	r := &Renderer{dom: d, table: make(map[string][]*template.Template)}

	for key, texts := range systemCommon {
		if err := r.add("sys."+key, texts); err != nil {
			return nil, err
		}
	}
	for key, texts := range userCommon {
		if err := r.add("usr."+key, texts); err != nil {
			return nil, err
		}
	}
	if def := d.Spec().Default; def != nil {
		if err := r.add("default.inform", def.Inform); err != nil {
			return nil, err
		}
		if err := r.add("default.request", def.Request); err != nil {
			return nil, err
		}
	}
	slots := append(append([]*domain.Slot{}, d.UsrSlots()...), d.SysSlots()...)
	for _, s := range slots {
		prefix := "slot." + s.Name + "."
		if err := r.add(prefix+"inform", s.Templates.Inform); err != nil {
			return nil, err
		}
		if err := r.add(prefix+"request", s.Templates.Request); err != nil {
			return nil, err
		}
		if err := r.add(prefix+"dont_care", s.Templates.DontCare); err != nil {
			return nil, err
		}
		for v, texts := range s.Templates.YNQuestion {
			if err := r.add(prefix+"yn."+v, texts); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Renderer) add(key string, texts []string) error {
	for i, text := range texts {
		t, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return fmt.Errorf("template %s[%d]: %w", key, i, err)
		}
		r.table[key] = append(r.table[key], t)
	}
	return nil
}

func (r *Renderer) has(key string) bool {
	return len(r.table[key]) > 0
}

// sample executes one randomly chosen template of key.
func (r *Renderer) sample(key string, data templateCtx, rng *rand.Rand) (string, error) {
	ts := r.table[key]
	if len(ts) == 0 {
		return "", fmt.Errorf("no template for %s", key)
	}
	t := ts[0]
	if len(ts) > 1 {
		t = ts[rng.IntN(len(ts))]
	}
	buf := &cappedBuffer{limit: maxUtterance}
	if err := t.Execute(buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return buf.String(), nil
}

func (r *Renderer) literal(slot string, v dialog.Value) (*domain.Slot, string, error) {
	s, err := r.slot(slot)
	if err != nil {
		return nil, "", err
	}
	lit, err := s.Lexicalize(v)
	if err != nil {
		return nil, "", err
	}
	return s, lit, nil
}

func (r *Renderer) slot(name string) (*domain.Slot, error) {
	if s, err := r.dom.UsrSlot(name); err == nil {
		return s, nil
	}
	return r.dom.SysSlot(name)
}

func noParams() []any {
	return []any{}
}

// System renders a system turn.
func (r *Renderer) System(acts []dialog.Act, rng *rand.Rand) (string, []dialog.LexAct, error) {
	parts := make([]string, 0, len(acts))
	lex := make([]dialog.LexAct, 0, len(acts))

	for _, a := range acts {
		var text string
		params := noParams()
		var err error

		switch a.Kind {
		case dialog.SysGreet:
			text = r.dom.Greet()
		case dialog.SysAskRepeat, dialog.SysAskRephrase, dialog.SysClarify, dialog.SysGoodbye:
			text, err = r.sample("sys."+string(a.Kind), templateCtx{}, rng)
		case dialog.SysRequest:
			params = []any{a.Slot}
			switch a.Slot {
			case dialog.SlotNeed:
				text, err = r.sample("sys.need", templateCtx{}, rng)
			case dialog.SlotHappy:
				text, err = r.sample("sys.happy", templateCtx{}, rng)
			default:
				text, err = r.sample("slot."+a.Slot+".request", templateCtx{Slot: a.Slot}, rng)
			}
		case dialog.SysExplicitConfirm, dialog.SysImplicitConfirm:
			text, params, err = r.confirm(a, rng)
		case dialog.SysQuery:
			text, params, err = r.query(a)
		case dialog.SysInform:
			text, params, err = r.results(a, rng)
		default:
			err = fmt.Errorf("%w: system %q", ErrUnknownAct, a.Kind)
		}
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, text)
		lex = append(lex, dialog.LexAct{Act: a.Kind, Parameters: params})
	}
	return strings.Join(parts, " "), lex, nil
}

func (r *Renderer) confirm(a dialog.Act, rng *rand.Rand) (string, []any, error) {
	s, lit, err := r.literal(a.Slot, a.Value)
	if err != nil {
		return "", nil, err
	}
	key := "sys." + string(a.Kind)
	if a.Value == dialog.DontCare {
		key += ".dont_care"
	}
	name := s.Description
	if name == "" {
		name = s.Name
	}
	text, err := r.sample(key, templateCtx{Slot: name, Value: lit}, rng)
	return text, []any{a.Slot, lit}, err
}

type queryLine struct {
	Query map[string]string `json:"QUERY"`
	Goals []string          `json:"GOALS"`
}

func (r *Renderer) query(a dialog.Act) (string, []any, error) {
	if a.Query == nil {
		return "", nil, fmt.Errorf("%w: query without payload", ErrUnknownAct)
	}
	line := queryLine{Query: make(map[string]string, len(a.Query.Constraints)), Goals: []string{}}
	for _, c := range a.Query.Constraints {
		_, lit, err := r.literal(c.Slot, c.Value)
		if err != nil {
			return "", nil, err
		}
		line.Query[c.Slot] = lit
	}
	line.Goals = append(line.Goals, a.Query.Goals...)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(line); err != nil {
		return "", nil, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), []any{line.Query, line.Goals}, nil
}

func (r *Renderer) results(a dialog.Act, rng *rand.Rand) (string, []any, error) {
	informs := make([]string, 0, len(a.Results))
	reported := make(map[string]string, len(a.Results))
	for _, res := range a.Results {
		if res.Slot == dialog.SlotDefault {
			lit := strconv.Itoa(int(res.Value))
			text, err := r.sample("default.inform", templateCtx{Slot: res.Slot, Value: lit}, rng)
			if err != nil {
				return "", nil, err
			}
			reported[res.Slot] = lit
			informs = append(informs, text)
			continue
		}
		_, lit, err := r.literal(res.Slot, res.Value)
		if err != nil {
			return "", nil, err
		}
		reported[res.Slot] = lit
		text, err := r.sample("slot."+res.Slot+".inform", templateCtx{Slot: res.Slot, Value: lit}, rng)
		if err != nil {
			return "", nil, err
		}
		if res.Expected != dialog.NoValue {
			key := "sys.no"
			if res.Expected == res.Value {
				key = "sys.yes"
			}
			prefix, err := r.sample(key, templateCtx{}, rng)
			if err != nil {
				return "", nil, err
			}
			text = prefix + " " + text
		}
		informs = append(informs, text)
	}
	return strings.Join(informs, " "), []any{reported}, nil
}

// User renders a user turn.
func (r *Renderer) User(acts []dialog.Act, rng *rand.Rand) (string, []dialog.LexAct, error) {
	parts := make([]string, 0, len(acts))
	lex := make([]dialog.LexAct, 0, len(acts))

	for _, a := range acts {
		var text string
		params := noParams()
		var err error

		switch a.Kind {
		case dialog.UsrGoodbye, dialog.UsrConfirm, dialog.UsrDisconfirm, dialog.UsrSatisfy,
			dialog.UsrMoreRequest, dialog.UsrNewSearch, dialog.UsrChat:
			text, err = r.sample("usr."+string(a.Kind), templateCtx{}, rng)
			if a.Kind == dialog.UsrConfirm || a.Kind == dialog.UsrDisconfirm {
				params = []any{a.Slot}
			}
		case dialog.UsrRequest:
			params = []any{a.Slot}
			key := "slot." + a.Slot + ".request"
			if a.Slot == dialog.SlotDefault {
				key = "default.request"
			}
			text, err = r.sample(key, templateCtx{Slot: a.Slot}, rng)
		case dialog.UsrInform:
			text, params, err = r.userInform(a, rng)
		case dialog.UsrYNQuestion:
			text, params, err = r.ynQuestion(a, rng)
		default:
			err = fmt.Errorf("%w: user %q", ErrUnknownAct, a.Kind)
		}
		if err != nil {
			return "", nil, err
		}
		if text != "" {
			parts = append(parts, text)
		}
		lex = append(lex, dialog.LexAct{Act: a.Kind, Parameters: params})
	}
	return strings.Join(parts, " "), lex, nil
}

func (r *Renderer) userInform(a dialog.Act, rng *rand.Rand) (string, []any, error) {
	_, lit, err := r.literal(a.Slot, a.Value)
	if err != nil {
		return "", nil, err
	}
	text, err := r.informValue(a.Slot, a.Value, lit, rng)
	if err != nil {
		return "", nil, err
	}
	if a.Wrong == dialog.NoValue {
		return text, []any{a.Slot, lit}, nil
	}

	_, wrongLit, err := r.literal(a.Slot, a.Wrong)
	if err != nil {
		return "", nil, err
	}
	wrong, err := r.informValue(a.Slot, a.Wrong, wrongLit, rng)
	if err != nil {
		return "", nil, err
	}
	connector, err := r.sample("usr.correction", templateCtx{}, rng)
	if err != nil {
		return "", nil, err
	}
	return wrong + " " + connector + " " + text, []any{a.Slot, lit, wrongLit}, nil
}

func (r *Renderer) informValue(slot string, v dialog.Value, lit string, rng *rand.Rand) (string, error) {
	if v != dialog.DontCare {
		return r.sample("slot."+slot+".inform", templateCtx{Slot: slot, Value: lit}, rng)
	}
	if key := "slot." + slot + ".dont_care"; r.has(key) {
		return r.sample(key, templateCtx{Slot: slot}, rng)
	}
	return r.sample("usr.dont_care", templateCtx{Slot: slot}, rng)
}

func (r *Renderer) ynQuestion(a dialog.Act, rng *rand.Rand) (string, []any, error) {
	_, lit, err := r.literal(a.Slot, a.Value)
	if err != nil {
		return "", nil, err
	}
	if key := "slot." + a.Slot + ".yn." + lit; r.has(key) {
		text, err := r.sample(key, templateCtx{Slot: a.Slot, Value: lit}, rng)
		return text, []any{a.Slot, lit}, err
	}
	// Slots without a yes/no form for this value fall back to a request.
	text, err := r.sample("slot."+a.Slot+".request", templateCtx{Slot: a.Slot, Value: lit}, rng)
	return text, []any{a.Slot, lit}, err
}
