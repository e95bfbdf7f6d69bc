package content

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// envelope is the standard service response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// unwrapEnvelope returns the data payload of a wrapped response, or the body
// unchanged if it is not wrapped.
func unwrapEnvelope(body []byte) (json.RawMessage, string) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil {
		return body, ""
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, env.Message
	}
	return env.Data, env.Message
}

// flexInt accepts both JSON numbers and numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Non-numeric problem numbers are tolerated and treated as unknown.
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}

type wireProblem struct {
	MongoID          string     `json:"_id"`
	ID               string     `json:"id"`
	ProblemNumber    flexInt    `json:"problem_number"`
	ProblemText      string     `json:"problem_text"`
	ProblemStatement string     `json:"problem_statement"`
	Content          string     `json:"content"`
	Description      string     `json:"description"`
	AnswerChoices    []string   `json:"answer_choices"`
	CorrectAnswer    string     `json:"correct_answer"`
	Difficulty       flexString `json:"difficulty"`
	Topics           []string   `json:"topics"`
	ContestID        string     `json:"contest_id"`
	Contest          string     `json:"contest"`
	Year             flexInt    `json:"year"`
	Solution         string     `json:"solution"`
}

func (w wireProblem) toProblem() *Problem {
	p := &Problem{
		ID:            firstNonEmpty(w.MongoID, w.ID),
		Number:        int(w.ProblemNumber),
		Statement:     firstNonEmpty(w.ProblemText, w.ProblemStatement, w.Content, w.Description),
		Choices:       w.AnswerChoices,
		CorrectAnswer: w.CorrectAnswer,
		Difficulty:    string(w.Difficulty),
		Topics:        w.Topics,
		Contest:       w.Contest,
		Year:          int(w.Year),
		Solution:      w.Solution,
	}
	if (p.Contest == "" || p.Year == 0) && w.ContestID != "" {
		contest, year := ParseContestID(w.ContestID)
		if p.Contest == "" {
			p.Contest = contest
		}
		if p.Year == 0 {
			p.Year = year
		}
	}
	return p
}

var contestLevel = regexp.MustCompile(`^([A-Za-z]+)\s*(\d+[A-Za-z]?)$`)

// ParseContestID splits an id such as "AMC10A_2022" into the display
// contest name "AMC 10A" and the year 2022. Unrecognised ids are returned
// as the contest name with year 0.
func ParseContestID(id string) (string, int) {
	name, yearStr, ok := strings.Cut(strings.TrimSpace(id), "_")
	if !ok {
		return id, 0
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return id, 0
	}
	if m := contestLevel.FindStringSubmatch(name); m != nil {
		name = m[1] + " " + m[2]
	}
	return name, year
}

// ContestID builds the service's contest id from a display name and year,
// the inverse of ParseContestID.
func ContestID(contest string, year int) string {
	return strings.ReplaceAll(contest, " ", "") + "_" + strconv.Itoa(year)
}

type wireSession struct {
	SessionID     string `json:"session_id"`
	TotalProblems int    `json:"total_problems"`
	Shuffle       bool   `json:"shuffle"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
