package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	datasetModule   = "DatasetService"
	hostedCacheKey  = "hosted"
	datasetProvider = "hosted dataset"
)

// IDatasetService loads the authoritative project from the hosted dataset.
type IDatasetService interface {
	Hosted(ctx context.Context) (*store.Project, error)
}

type datasetService struct {
	url    string
	client *http.Client
	cache  *cache.Cache
	logger logger.ILogger
}

func NewDatasetService(url string, ttl, timeout time.Duration, logger logger.ILogger) IDatasetService {
	return &datasetService{
		url:    url,
		client: &http.Client{Timeout: timeout},
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

type datasetProduct struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Barcode string `json:"barcode"`
}

type datasetStep struct {
	Step        int      `json:"step"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details"`
	Tip         string   `json:"tip"`
	Diagrams    []string `json:"diagrams"`
}

type datasetManual struct {
	URL   string        `json:"url"`
	Steps []datasetStep `json:"steps"`
}

type datasetDocument struct {
	Product           datasetProduct `json:"product"`
	InstructionManual datasetManual  `json:"instructionManual"`
}

func (ds *datasetService) Hosted(ctx context.Context) (*store.Project, error) {
	if ds.url == "" {
		return nil, apperr.Unconfigured(datasetProvider)
	}
	if x, found := ds.cache.Get(hostedCacheKey); found {
		return x.(*store.Project), nil
	}

	doc, err := ds.fetch(ctx)
	if err != nil {
		ds.logger.Warn(datasetModule, "Hosted dataset unavailable", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	project, err := projectFromDataset(doc)
	if err != nil {
		ds.logger.Warn(datasetModule, "Hosted dataset unusable", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	ds.cache.Set(hostedCacheKey, project, cache.DefaultExpiration)
	ds.logger.Info(datasetModule, "Hosted project loaded", map[string]interface{}{
		"project_id": project.ID,
		"name":       project.Name,
		"steps":      project.TotalSteps(),
	})
	return project, nil
}

func (ds *datasetService) fetch(ctx context.Context) (*datasetDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ds.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ds.client.Do(req)
	if err != nil {
		return nil, apperr.Unavailable(datasetProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Unavailable(datasetProvider, fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var doc datasetDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, apperr.Malformed(datasetProvider, err)
	}
	return &doc, nil
}

// projectFromDataset converts a dataset document into a hosted-dataset project.
func projectFromDataset(doc *datasetDocument) (*store.Project, error) {
	steps := make([]store.InstructionStep, 0, len(doc.InstructionManual.Steps))
	for _, s := range doc.InstructionManual.Steps {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Description) == "" {
			continue
		}
		steps = append(steps, store.InstructionStep{
			Title:       strings.TrimSpace(s.Title),
			Description: strings.TrimSpace(s.Description),
			Details:     s.Details,
			Tip:         s.Tip,
			Diagrams:    s.Diagrams,
		})
	}

	id := strings.TrimSpace(doc.Product.ID)
	if id == "" {
		id = uuid.NewString()
	}
	name := strings.TrimSpace(doc.Product.Name)
	if name == "" {
		name = "Hosted project"
	}

	project, err := store.NewProject("hosted-"+id, name, store.SourceHostedDataset, steps)
	if err != nil {
		return nil, apperr.Malformed(datasetProvider, err)
	}
	project.ManualURL = doc.InstructionManual.URL
	return project, nil
}
