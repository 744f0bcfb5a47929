package httpsource

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/file"
)

// SetPlaceholder in the URL is replaced with the requested set id.
const SetPlaceholder = "{set}"

// QuestionLoader fetches a question document over HTTP, the way the display
// page fetches questions.json. There is no retry: a failed fetch is reported.
type QuestionLoader struct {
	client *req.Client
	url    string
}

func NewQuestionLoader(url string, timeout time.Duration) *QuestionLoader {
	client := req.C().
		SetTimeout(timeout).
		SetCommonHeader("Accept", "application/json, application/yaml").
		SetCommonHeader("Cache-Control", "no-cache")
	return &QuestionLoader{client: client, url: url}
}

func (l *QuestionLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	url := strings.ReplaceAll(l.url, SetPlaceholder, setID)
	resp, err := l.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return domain.QuestionSet{}, errors.Wrapf(err, "failed to fetch `%v`", url)
	}
	switch code := resp.GetStatusCode(); {
	case code == http.StatusNotFound:
		return domain.QuestionSet{}, errors.Wrapf(domain.ErrQuestionSetNotFound, "%v", url)
	case code != http.StatusOK:
		return domain.QuestionSet{}, errors.Errorf("failed to fetch `%v`: status code %v", url, code)
	}
	data, err := resp.ToBytes()
	if err != nil {
		return domain.QuestionSet{}, errors.Wrapf(err, "failed to read body of `%v`", url)
	}
	set, err := file.Decode(data, formatOf(url, resp.GetHeader("Content-Type")))
	if err != nil {
		return domain.QuestionSet{}, errors.Wrapf(err, "failed to decode `%v`", url)
	}
	if set.ID == "" {
		set.ID = setID
	}
	if err := set.Validate(); err != nil {
		return domain.QuestionSet{}, err
	}
	return set, nil
}

func formatOf(url, contentType string) string {
	if strings.Contains(contentType, "yaml") {
		return ".yaml"
	}
	if strings.Contains(contentType, "json") {
		return ".json"
	}
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return path.Ext(url)
}
