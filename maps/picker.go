package maps

import (
	"context"
	"errors"
	"sync"
)

// Target names which trip field a picker is choosing for.
type Target string

const (
	TargetDeparture   Target = "departure"
	TargetDestination Target = "destination"
)

// Selection is a confirmed point on the map.
type Selection struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Geolocator reports the device's current position.
type Geolocator interface {
	Current(ctx context.Context) (lat, lng float64, err error)
}

// Geolocation failure modes, mapped to user-facing messages.
var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("geolocation position unavailable")
	ErrGeoTimeout          = errors.New("geolocation timed out")
)

// GeoErrorMessage translates a geolocation failure into the text shown
// to the user.
func GeoErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "위치 권한이 거부되었습니다. 브라우저 설정에서 위치 권한을 허용해주세요."
	case errors.Is(err, ErrPositionUnavailable):
		return "현재 위치를 확인할 수 없습니다."
	case errors.Is(err, ErrGeoTimeout):
		return "위치 확인 시간이 초과되었습니다. 다시 시도해주세요."
	default:
		return "위치를 가져오는 중 오류가 발생했습니다."
	}
}

// Picker holds the in-progress state of one map selection. There is at
// most one marker at a time; every new selection replaces the previous
// one. Closing the picker discards everything, and any lookup that
// finishes after close is dropped on the floor.
type Picker struct {
	kakao *KakaoClient

	mu         sync.Mutex
	target     Target
	selection  *Selection
	closed     bool
	generation int
}

func NewPicker(kakao *KakaoClient, target Target) *Picker {
	return &Picker{kakao: kakao, target: target}
}

func (p *Picker) Target() Target { return p.target }

// SelectPlace places the marker on a search result.
func (p *Picker) SelectPlace(place Place) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.generation++
	p.selection = &Selection{Address: place.Address, Lat: place.Lat, Lng: place.Lng}
}

// SelectPoint places the marker on a tapped coordinate and resolves its
// address. If the picker was closed while the lookup was in flight, or
// another selection superseded this one, the result is discarded.
func (p *Picker) SelectPoint(ctx context.Context, lat, lng float64) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	address := p.kakao.ReverseGeocode(ctx, lat, lng)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.generation != gen {
		return
	}
	p.selection = &Selection{Address: address, Lat: lat, Lng: lng}
}

// UseCurrentLocation places the marker on the device position.
func (p *Picker) UseCurrentLocation(ctx context.Context, geo Geolocator) error {
	lat, lng, err := geo.Current(ctx)
	if err != nil {
		return errors.New(GeoErrorMessage(err))
	}
	p.SelectPoint(ctx, lat, lng)
	return nil
}

// Confirm hands the current selection back to the owning field. It
// reports false when nothing has been selected yet.
func (p *Picker) Confirm() (Selection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.selection == nil {
		return Selection{}, false
	}
	return *p.selection, true
}

// Close discards the picker's state. Further calls are no-ops.
func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.selection = nil
}
