package maps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"charterbus/utils"
)

func init() {
	utils.InitLogger()
}

func kakaoStub(t *testing.T, keywordDocs, addressDocs []kakaoDocument) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "KakaoAK test-key" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/v2/local/search/keyword.json":
			json.NewEncoder(w).Encode(kakaoResponse{Documents: keywordDocs})
		case "/v2/local/search/address.json":
			json.NewEncoder(w).Encode(kakaoResponse{Documents: addressDocs})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSearchFallsBackToAddressLookup(t *testing.T) {
	srv := kakaoStub(t, nil, []kakaoDocument{
		{AddressName: "서울 중구 세종대로 110", X: "126.9779", Y: "37.5663"},
	})
	defer srv.Close()

	c := NewKakaoClientWithHTTP(srv.URL, "test-key", srv.Client())
	places, err := c.Search(context.Background(), "세종대로 110")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("len(places) = %d", len(places))
	}
	if places[0].Address != "서울 중구 세종대로 110" {
		t.Fatalf("Address = %q", places[0].Address)
	}
	if places[0].Name != places[0].Address {
		t.Fatalf("Name should fall back to address, got %q", places[0].Name)
	}
}

func TestSearchNoResults(t *testing.T) {
	srv := kakaoStub(t, nil, nil)
	defer srv.Close()

	c := NewKakaoClientWithHTTP(srv.URL, "test-key", srv.Client())
	if _, err := c.Search(context.Background(), "존재하지않는곳12345"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("Search() error = %v, want ErrNoResults", err)
	}
}

func TestReverseGeocodeFallsBackToCoordinates(t *testing.T) {
	c := NewKakaoClientWithHTTP("http://127.0.0.1:1", "test-key", http.DefaultClient)
	got := c.ReverseGeocode(context.Background(), 37.5663, 126.9779)
	want := "위도: 37.566300, 경도: 126.977900"
	if got != want {
		t.Fatalf("ReverseGeocode() = %q, want %q", got, want)
	}
}

func TestPickerSingletonMarker(t *testing.T) {
	p := NewPicker(nil, TargetDeparture)

	p.SelectPlace(Place{Name: "서울역", Address: "서울 용산구 한강대로 405", Lat: 37.5547, Lng: 126.9707})
	p.SelectPlace(Place{Name: "강남역", Address: "서울 강남구 강남대로 396", Lat: 37.4979, Lng: 127.0276})

	sel, ok := p.Confirm()
	if !ok {
		t.Fatal("Confirm() reported no selection")
	}
	if sel.Address != "서울 강남구 강남대로 396" {
		t.Fatalf("marker not replaced, got %q", sel.Address)
	}
}

func TestPickerCloseDiscardsState(t *testing.T) {
	p := NewPicker(nil, TargetDestination)
	p.SelectPlace(Place{Address: "a", Lat: 1, Lng: 2})
	p.Close()

	if _, ok := p.Confirm(); ok {
		t.Fatal("Confirm() returned a selection after Close")
	}

	// Selections landing after close must be dropped.
	p.SelectPlace(Place{Address: "b", Lat: 3, Lng: 4})
	if _, ok := p.Confirm(); ok {
		t.Fatal("selection accepted after Close")
	}
}

func TestPickerStaleReverseGeocodeDiscarded(t *testing.T) {
	started := make(chan struct{})
	released := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-released
		w.Write([]byte(`{"documents":[{"address":{"address_name":"늦은 주소"}}]}`))
	}))
	defer srv.Close()

	p := NewPicker(NewKakaoClientWithHTTP(srv.URL, "test-key", srv.Client()), TargetDeparture)

	done := make(chan struct{})
	go func() {
		p.SelectPoint(context.Background(), 37.0, 127.0)
		close(done)
	}()

	// Supersede the in-flight tap, then let its lookup finish.
	<-started
	p.SelectPlace(Place{Address: "빠른 주소", Lat: 36.0, Lng: 128.0})
	close(released)
	<-done

	sel, ok := p.Confirm()
	if !ok || sel.Address != "빠른 주소" {
		t.Fatalf("stale lookup overwrote selection: %+v ok=%v", sel, ok)
	}
}

type stubGeo struct {
	lat, lng float64
	err      error
}

func (s stubGeo) Current(context.Context) (float64, float64, error) { return s.lat, s.lng, s.err }

func TestGeoErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrPermissionDenied, "위치 권한이 거부되었습니다. 브라우저 설정에서 위치 권한을 허용해주세요."},
		{ErrPositionUnavailable, "현재 위치를 확인할 수 없습니다."},
		{ErrGeoTimeout, "위치 확인 시간이 초과되었습니다. 다시 시도해주세요."},
		{errors.New("other"), "위치를 가져오는 중 오류가 발생했습니다."},
	}
	for _, tc := range cases {
		if got := GeoErrorMessage(tc.err); got != tc.want {
			t.Fatalf("GeoErrorMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestUseCurrentLocationMapsFailure(t *testing.T) {
	p := NewPicker(nil, TargetDeparture)
	err := p.UseCurrentLocation(context.Background(), stubGeo{err: ErrPermissionDenied})
	if err == nil || err.Error() != GeoErrorMessage(ErrPermissionDenied) {
		t.Fatalf("UseCurrentLocation() error = %v", err)
	}
}
