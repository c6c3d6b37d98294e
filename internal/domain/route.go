package domain

// RouteLeg - один сегмент маршрута между последовательными остановками.
// Leg i соединяет остановку i-1 (или стартовую точку при i=0) с остановкой i.
type RouteLeg struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Summary         string  `json:"summary,omitempty"`
}

// RouteResult - консолидированный результат построения маршрута.
// Дистанции всегда в метрах, длительности в секундах; конвертация
// в мили/км и часы/минуты - забота слоя отображения.
type RouteResult struct {
	Geometry        []Coordinate `json:"geometry"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	Legs            []RouteLeg   `json:"legs"`
}

// DirectionsResponse - ответ Mapbox Directions API
type DirectionsResponse struct {
	Code   string            `json:"code"`
	Routes []DirectionsRoute `json:"routes"`
}

// DirectionsRoute - один вариант маршрута
type DirectionsRoute struct {
	Distance float64         `json:"distance"` // meters
	Duration float64         `json:"duration"` // seconds
	Legs     []DirectionsLeg `json:"legs"`
}

// DirectionsLeg - сегмент маршрута между двумя waypoint
type DirectionsLeg struct {
	Distance float64          `json:"distance"`
	Duration float64          `json:"duration"`
	Summary  string           `json:"summary"`
	Steps    []DirectionsStep `json:"steps"`
}

// DirectionsStep - шаг маневра с геометрией
type DirectionsStep struct {
	Geometry StepGeometry `json:"geometry"`
}

// StepGeometry - GeoJSON LineString шага, координаты [lon, lat]
type StepGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// Points конвертирует геометрию лега в последовательность координат
func (l DirectionsLeg) Points() []Coordinate {
	var points []Coordinate
	for _, step := range l.Steps {
		for _, c := range step.Geometry.Coordinates {
			if len(c) < 2 {
				continue
			}
			points = append(points, Coordinate{Lon: c[0], Lat: c[1]})
		}
	}
	return points
}
