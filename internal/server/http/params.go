package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fredxotic/cord19-explorer/internal/dataset"
	"github.com/fredxotic/cord19-explorer/internal/explorer"
)

// Query parameter names understood by the dashboard and the JSON API.
const (
	paramMode             = "mode"
	paramYearMin          = "year_min"
	paramYearMax          = "year_max"
	paramMinAbstractWords = "min_abstract_words"
	paramTopJournals      = "top_journals"
	paramTopWords         = "top_words"
	paramSampleRows       = "sample_rows"
	paramWordSource       = "word_source"
	paramLimit            = "limit"
)

// viewQuery carries the raw panel settings from the query string. The
// validate tags reject garbage outright; values that pass are still
// clamped to the panel bounds by explorer.Params.Normalize, so a large
// top_journals yields the panel maximum rather than an error.
type viewQuery struct {
	Mode             string `validate:"omitempty,oneof=sample full"`
	YearMin          int    `validate:"gte=0,lte=9999"`
	YearMax          int    `validate:"gte=0,lte=9999"`
	MinAbstractWords int    `validate:"gte=0"`
	TopJournals      int    `validate:"gte=0"`
	TopWords         int    `validate:"gte=0"`
	SampleRows       int    `validate:"gte=0"`
	WordSource       string `validate:"omitempty,oneof=titles abstracts"`
}

// parseViewQuery reads the panel settings from a request. Absent
// parameters keep the explorer defaults, except min_abstract_words where
// an explicit zero means "no floor" and absence means the panel default.
func (s *Server) parseViewQuery(r *http.Request) (dataset.Mode, explorer.Params, error) {
	q := r.URL.Query()

	vq := viewQuery{
		Mode:       q.Get(paramMode),
		WordSource: q.Get(paramWordSource),
	}

	var err error
	if vq.YearMin, _, err = queryInt(q, paramYearMin); err != nil {
		return "", explorer.Params{}, err
	}
	if vq.YearMax, _, err = queryInt(q, paramYearMax); err != nil {
		return "", explorer.Params{}, err
	}
	minWords, hasMinWords, err := queryInt(q, paramMinAbstractWords)
	if err != nil {
		return "", explorer.Params{}, err
	}
	vq.MinAbstractWords = minWords
	if vq.TopJournals, _, err = queryInt(q, paramTopJournals); err != nil {
		return "", explorer.Params{}, err
	}
	if vq.TopWords, _, err = queryInt(q, paramTopWords); err != nil {
		return "", explorer.Params{}, err
	}
	if vq.SampleRows, _, err = queryInt(q, paramSampleRows); err != nil {
		return "", explorer.Params{}, err
	}

	if err := s.validate.Struct(vq); err != nil {
		return "", explorer.Params{}, queryValidationError(err)
	}

	params := explorer.Params{
		YearMin:          vq.YearMin,
		YearMax:          vq.YearMax,
		MinAbstractWords: vq.MinAbstractWords,
		TopJournals:      vq.TopJournals,
		TopWords:         vq.TopWords,
		SampleRows:       vq.SampleRows,
		WordSource:       explorer.WordSource(vq.WordSource),
	}
	if !hasMinWords {
		params.MinAbstractWords = explorer.DefaultMinAbstractWords
	}
	return dataset.Mode(vq.Mode), params, nil
}

// queryInt parses an optional integer query parameter. The boolean
// reports whether the parameter was present.
func queryInt(q url.Values, name string) (int, bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer", name)
	}
	return v, true, nil
}

// queryValidationError converts a validator error into a client-facing
// message naming the offending query parameter.
func queryValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.New("invalid query parameters")
	}

	fe := verrs[0]
	name := queryParamName(fe.Field())
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Errorf("%s is out of range", name)
	}
}

// queryParamName maps a viewQuery field back to its query parameter.
func queryParamName(field string) string {
	switch field {
	case "Mode":
		return paramMode
	case "YearMin":
		return paramYearMin
	case "YearMax":
		return paramYearMax
	case "MinAbstractWords":
		return paramMinAbstractWords
	case "TopJournals":
		return paramTopJournals
	case "TopWords":
		return paramTopWords
	case "SampleRows":
		return paramSampleRows
	case "WordSource":
		return paramWordSource
	default:
		return strings.ToLower(field)
	}
}

// panelQuery encodes normalized panel settings as a query string, used
// by the dashboard page to point chart images and the CSV download at
// the same view.
func panelQuery(mode string, p explorer.Params) string {
	q := url.Values{}
	q.Set(paramMode, mode)
	q.Set(paramYearMin, strconv.Itoa(p.YearMin))
	q.Set(paramYearMax, strconv.Itoa(p.YearMax))
	q.Set(paramMinAbstractWords, strconv.Itoa(p.MinAbstractWords))
	q.Set(paramTopJournals, strconv.Itoa(p.TopJournals))
	q.Set(paramTopWords, strconv.Itoa(p.TopWords))
	q.Set(paramSampleRows, strconv.Itoa(p.SampleRows))
	q.Set(paramWordSource, string(p.WordSource))
	return q.Encode()
}
