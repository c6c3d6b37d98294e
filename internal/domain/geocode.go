package domain

// GeocodeResult - результат геокодирования адреса.
// Found=false означает "адрес не найден" и тоже кешируется.
type GeocodeResult struct {
	Coordinate Coordinate `json:"coordinate"`
	Found      bool       `json:"found"`
}

// GeocodeNotFound - явный отрицательный результат
func GeocodeNotFound() GeocodeResult {
	return GeocodeResult{Found: false}
}

// GeocodingResponse - ответ Mapbox Geocoding API
type GeocodingResponse struct {
	Type     string             `json:"type"`
	Features []GeocodingFeature `json:"features"`
}

// GeocodingFeature - одна найденная локация
type GeocodingFeature struct {
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"` // [lon, lat]
	Relevance float64   `json:"relevance"`
}

// Coordinate преобразует center фичи в Coordinate.
// Возвращает false при неполном payload.
func (f GeocodingFeature) Coordinate() (Coordinate, bool) {
	if len(f.Center) < 2 {
		return Coordinate{}, false
	}
	return Coordinate{Lon: f.Center[0], Lat: f.Center[1]}, true
}
