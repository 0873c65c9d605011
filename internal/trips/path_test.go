package trips

import (
	"testing"
)

func TestPathRoundTrip(t *testing.T) {
	points := []Point{
		{Latitude: 12.9716, Longitude: 77.5946},
		{Latitude: 12.9720, Longitude: 77.5950},
		{Latitude: 12.9731, Longitude: 77.5961},
	}

	data, err := EncodePath(points)
	if err != nil {
		t.Fatalf("EncodePath: %v", err)
	}
	got, err := DecodePath(data)
	if err != nil {
		t.Fatalf("DecodePath: %v", err)
	}
	if len(got) != len(points) {
		t.Fatalf("points = %d, want %d", len(got), len(points))
	}
	for i := range points {
		if got[i] != points[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], points[i])
		}
	}
}

func TestPathEmpty(t *testing.T) {
	data, err := EncodePath([]Point{})
	if err != nil {
		t.Fatalf("EncodePath: %v", err)
	}
	got, err := DecodePath(data)
	if err != nil {
		t.Fatalf("DecodePath: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("points = %d, want 0", len(got))
	}
}

func TestDecodePathNil(t *testing.T) {
	got, err := DecodePath(nil)
	if err != nil {
		t.Fatalf("DecodePath(nil): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("points = %d, want 0", len(got))
	}
}

func TestDecodePathGarbage(t *testing.T) {
	if _, err := DecodePath([]byte{0xde, 0xad, 0xbe, 0xef}); err == nil {
		t.Error("expected an error for garbage bytes")
	}
}
