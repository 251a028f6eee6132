package maps

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"charterbus/utils"
)

// ErrNoResults means neither keyword nor address search matched.
var ErrNoResults = errors.New("no places found")

// Place is one candidate returned by a search.
type Place struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

// KakaoClient wraps the Kakao Local REST API.
type KakaoClient struct {
	baseURL    string
	restKey    string
	httpClient *http.Client
}

func NewKakaoClient(restKey string) *KakaoClient {
	return &KakaoClient{
		baseURL:    "https://dapi.kakao.com",
		restKey:    restKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func NewKakaoClientWithHTTP(baseURL, restKey string, hc *http.Client) *KakaoClient {
	return &KakaoClient{baseURL: baseURL, restKey: restKey, httpClient: hc}
}

type kakaoDocument struct {
	PlaceName   string `json:"place_name"`
	AddressName string `json:"address_name"`
	RoadAddress string `json:"road_address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}

type kakaoResponse struct {
	Documents []kakaoDocument `json:"documents"`
}

func (c *KakaoClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.restKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		utils.LogExternalAPI(utils.ExternalCall{
			Provider: "kakao-maps", Endpoint: path,
			DurationMs: time.Since(start).Milliseconds(), Err: err,
		})
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	utils.LogExternalAPI(utils.ExternalCall{
		Provider: "kakao-maps", Endpoint: path, StatusCode: resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(), Err: err,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New("kakao api: " + resp.Status)
	}
	return json.Unmarshal(body, out)
}

func toPlaces(docs []kakaoDocument) []Place {
	places := make([]Place, 0, len(docs))
	for _, d := range docs {
		lat, errY := strconv.ParseFloat(d.Y, 64)
		lng, errX := strconv.ParseFloat(d.X, 64)
		if errY != nil || errX != nil {
			continue
		}
		address := d.RoadAddress
		if address == "" {
			address = d.AddressName
		}
		name := d.PlaceName
		if name == "" {
			name = address
		}
		places = append(places, Place{Name: name, Address: address, Lat: lat, Lng: lng})
	}
	return places
}

// Search finds places for a free-text query. Keyword search runs first;
// when it returns nothing the query is retried as an address lookup.
// Only when both come back empty is ErrNoResults returned.
func (c *KakaoClient) Search(ctx context.Context, query string) ([]Place, error) {
	q := url.Values{}
	q.Set("query", query)

	var keyword kakaoResponse
	if err := c.get(ctx, "/v2/local/search/keyword.json", q, &keyword); err != nil {
		return nil, err
	}
	if places := toPlaces(keyword.Documents); len(places) > 0 {
		return places, nil
	}

	var address kakaoResponse
	if err := c.get(ctx, "/v2/local/search/address.json", q, &address); err != nil {
		return nil, err
	}
	if places := toPlaces(address.Documents); len(places) > 0 {
		return places, nil
	}
	return nil, ErrNoResults
}

// ReverseGeocode resolves coordinates to an address. When the lookup
// fails or matches nothing, a raw coordinate text is returned instead so
// a pin drop always yields a usable label.
func (c *KakaoClient) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	q := url.Values{}
	q.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))

	var resp struct {
		Documents []struct {
			RoadAddress *struct {
				AddressName string `json:"address_name"`
			} `json:"road_address"`
			Address *struct {
				AddressName string `json:"address_name"`
			} `json:"address"`
		} `json:"documents"`
	}
	if err := c.get(ctx, "/v2/local/geo/coord2address.json", q, &resp); err != nil {
		return utils.FallbackAddress(lat, lng)
	}
	for _, d := range resp.Documents {
		if d.RoadAddress != nil && d.RoadAddress.AddressName != "" {
			return d.RoadAddress.AddressName
		}
		if d.Address != nil && d.Address.AddressName != "" {
			return d.Address.AddressName
		}
	}
	return utils.FallbackAddress(lat, lng)
}
