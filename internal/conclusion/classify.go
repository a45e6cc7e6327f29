package conclusion

import (
	"fmt"
	"log/slog"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

const willNotContribute = "This conclusion will not contribute to the final workflow conclusion."

// Kind tells how an additional conclusion was classified.
type Kind int

const (
	// KindMapped labels matched the vocabulary and join the outcome set.
	KindMapped Kind = iota
	// KindEmpty labels were blank, usually because the step did not run.
	KindEmpty
	// KindUnknown labels matched nothing.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindMapped:
		return "mapped"
	case KindEmpty:
		return "empty"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// ClassifyOptions carries the settings that influence classification.
type ClassifyOptions struct {
	Fallback                 types.Conclusion
	SuppressFallbackWarnings bool
}

// suppressed reports whether a warning for label may be downgraded to info.
func (o ClassifyOptions) suppressed(label string) bool {
	if !o.SuppressFallbackWarnings {
		return false
	}
	return label == "" || label == Normalize(string(o.Fallback))
}

// Classification is the verdict for one additional conclusion.
type Classification struct {
	Name       string
	Raw        string
	Label      string
	Conclusion types.Conclusion
	Kind       Kind
	Level      slog.Level
	Message    string
}

// Contributes reports whether the classification joins the outcome set.
func (c Classification) Contributes() bool { return c.Kind == KindMapped }

// Classify maps each record to a canonical conclusion and a log line.
// The result preserves input order.
func Classify(records []types.AdditionalConclusion, opts ClassifyOptions) []Classification {
	out := make([]Classification, 0, len(records))
	for _, rec := range records {
		out = append(out, classifyOne(rec, opts))
	}
	return out
}

func classifyOne(rec types.AdditionalConclusion, opts ClassifyOptions) Classification {
	label := Normalize(rec.Conclusion)
	c := Classification{Name: rec.Name, Raw: rec.Conclusion, Label: label}

	if label == "" {
		c.Kind = KindEmpty
		c.Level = warnLevel(opts.suppressed(label))
		c.Message = fmt.Sprintf("%s appears to be empty because the step may not have been run. %s", rec.Name, willNotContribute)
		return c
	}

	mapped, ok := Lookup(label)
	if !ok {
		c.Kind = KindUnknown
		c.Level = slog.LevelWarn
		c.Message = fmt.Sprintf("%s has an unknown option (%s).  %s", rec.Name, label, willNotContribute)
		return c
	}

	c.Kind = KindMapped
	c.Conclusion = mapped
	switch policies[mapped] {
	case alwaysWarn:
		c.Level = slog.LevelWarn
		c.Message = fmt.Sprintf("\t%s: %s => %s", rec.Name, rec.Conclusion, mapped)
	case alwaysInfo:
		c.Level = slog.LevelInfo
		c.Message = fmt.Sprintf("\t%s: %s => %s", rec.Name, rec.Conclusion, mapped)
	default:
		c.Level = warnLevel(opts.suppressed(label))
		c.Message = fmt.Sprintf("%s: %s => %s", rec.Name, rec.Conclusion, mapped)
	}
	return c
}

func warnLevel(suppressed bool) slog.Level {
	if suppressed {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

// Outcomes returns the conclusions of the contributing classifications in order.
func Outcomes(classifications []Classification) []types.Conclusion {
	var out []types.Conclusion
	for _, c := range classifications {
		if c.Contributes() {
			out = append(out, c.Conclusion)
		}
	}
	return out
}
