// internal/category/sources.go
package category

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/cache"
)

// NewDefaultRegistry wires the stock categories: programming languages from
// the GitHub API, countries from REST Countries, animals from API Ninjas, and
// a static fruits list.
func NewDefaultRegistry(items *cache.ItemsCache, logger *logrus.Logger) *Registry {
	r := NewRegistry(items, logger)
	client := &http.Client{Timeout: fetchTimeout}

	r.Register("programming_languages", fetchGitHubLanguages(client), fallbackLanguages)
	r.Register("countries", fetchCountries(client), fallbackCountries)
	r.Register("animals", fetchAnimals(client, os.Getenv("API_NINJAS_KEY")), fallbackAnimals)
	r.Register("fruits", nil, fruitItems)
	return r
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fetchGitHubLanguages(client *http.Client) FetchFunc {
	return func(ctx context.Context) ([]string, error) {
		var data []struct {
			Name string `json:"name"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/languages", nil, &data); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(data))
		for _, lang := range data {
			if lang.Name != "" {
				out = append(out, lang.Name)
			}
		}
		return out, nil
	}
}

func fetchCountries(client *http.Client) FetchFunc {
	return func(ctx context.Context) ([]string, error) {
		var data []struct {
			Name struct {
				Common string `json:"common"`
			} `json:"name"`
		}
		if err := getJSON(ctx, client, "https://restcountries.com/v3.1/all?fields=name", nil, &data); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(data))
		for _, c := range data {
			if c.Name.Common != "" {
				out = append(out, c.Name.Common)
			}
		}
		return out, nil
	}
}

func fetchAnimals(client *http.Client, apiKey string) FetchFunc {
	return func(ctx context.Context) ([]string, error) {
		headers := map[string]string{}
		if apiKey != "" {
			headers["X-Api-Key"] = apiKey
		}
		var data []struct {
			Name string `json:"name"`
		}
		if err := getJSON(ctx, client, "https://api.api-ninjas.com/v1/animals?limit=100", headers, &data); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(data))
		for _, a := range data {
			if a.Name != "" {
				out = append(out, a.Name)
			}
		}
		return out, nil
	}
}
