package models

import "fmt"

type OutcomeKind int

const (
	OutcomeFound OutcomeKind = iota + 1
	OutcomeNotFound
	OutcomeTimedOut
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the single result of resolving a Query. Text is set for Found
// (and for NotFound when it came from a cached negative rendering). Stale is
// only meaningful for TimedOut when HasStale is true. Detail holds internal
// error text and is never shown to users.
type Outcome struct {
	Kind      OutcomeKind
	Text      string
	Stale     string
	HasStale  bool
	Detail    string
	Records   []Record
	FromCache bool
}

func Found(text string, records []Record) Outcome {
	return Outcome{Kind: OutcomeFound, Text: text, Records: records}
}

func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

// TimedOut carries the previous rendering for the key when one exists.
func TimedOut(stale string, hasStale bool) Outcome {
	if !hasStale {
		stale = ""
	}
	return Outcome{Kind: OutcomeTimedOut, Stale: stale, HasStale: hasStale}
}

func Failed(detail string) Outcome {
	return Outcome{Kind: OutcomeError, Detail: detail}
}

// Messages are the user-visible texts. They are plain text and never
// include internal error detail.
type Messages struct {
	Prompt      string
	Searching   string // %s = model key
	NoResults   string // %s = model key
	StaleNotice string
	RetryLater  string
	Failure     string
	BadRequest  string
}

func DefaultMessages() Messages {
	return Messages{
		Prompt:      "모델명을 입력해주세요. 예: /ksel KTC-K501",
		Searching:   "🔍 [%s] 검색 중입니다...",
		NoResults:   "🔍 [%s] 검색 결과가 없습니다.",
		StaleNotice: "⚠️ 인증 조회 사이트 응답이 지연되어 이전 조회 결과를 표시합니다.",
		RetryLater:  "⏳ 인증 조회 사이트 응답이 지연되고 있습니다. 잠시 후 다시 시도해주세요.",
		Failure:     "❌ 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.",
		BadRequest:  "요청 형식이 올바르지 않습니다.",
	}
}

func (m Messages) SearchingFor(key string) string {
	return fmt.Sprintf(m.Searching, key)
}

func (m Messages) NoResultsFor(key string) string {
	return fmt.Sprintf(m.NoResults, key)
}

// Render turns an outcome into the text posted back to the chat.
func (o Outcome) Render(key string, m Messages) string {
	switch o.Kind {
	case OutcomeFound:
		return o.Text
	case OutcomeNotFound:
		if o.Text != "" {
			return o.Text
		}
		return m.NoResultsFor(key)
	case OutcomeTimedOut:
		if o.HasStale {
			return m.StaleNotice + "\n\n" + o.Stale
		}
		return m.RetryLater
	default:
		return m.Failure
	}
}
