package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/usedcar_market/internal/models"
)

// Search runs a fuzzy multi-field query over indexed car listings.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Car, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "brand", "model", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"is_active": true},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Car `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	cars := make([]models.Car, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		cars[i] = hit.Source
	}
	return r.Hits.Total.Value, cars, nil
}

// IndexCar upserts a listing document keyed by the car id.
func IndexCar(ctx context.Context, es *elasticsearch.Client, index string, car *models.Car) error {
	data, err := json.Marshal(car)
	if err != nil {
		return err
	}

	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(car.ID), 10)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index car %d: %s", car.ID, res.Status())
	}
	return nil
}

// DeleteCar drops a listing document; missing documents are fine.
func DeleteCar(ctx context.Context, es *elasticsearch.Client, index string, carID uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(carID), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete car %d: %s", carID, res.Status())
	}
	return nil
}
