package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Stop - одна или несколько встреч по общему разрешенному адресу,
// отображаемая одним маркером. Index - сквозной 1-based номер,
// присваиваемый после хронологической сортировки; он же служит
// подписью маркера и основой корреляции легов маршрута.
type Stop struct {
	Index        int           `json:"index"`
	Address      string        `json:"address"`
	Coordinate   Coordinate    `json:"coordinate"`
	Appointments []Appointment `json:"appointments"`
	Leg          *RouteLeg     `json:"leg,omitempty"`
}

// EarliestStart возвращает самое раннее начало среди встреч остановки
func (s *Stop) EarliestStart() time.Time {
	if len(s.Appointments) == 0 {
		return time.Time{}
	}
	earliest := s.Appointments[0].ScheduledStart
	for _, a := range s.Appointments[1:] {
		if a.ScheduledStart.Before(earliest) {
			earliest = a.ScheduledStart
		}
	}
	return earliest
}

// Label возвращает человекочитаемую подпись остановки для легов маршрута:
// тема первой встречи, иначе адрес, иначе позиционный fallback
func (s *Stop) Label() string {
	for _, a := range s.Appointments {
		if a.Subject != "" {
			return a.Subject
		}
	}
	if s.Address != "" {
		return s.Address
	}
	return "Stop " + strconv.Itoa(s.Index)
}

// Marker - запрос на отрисовку маркера для коллаборатора рендеринга
type Marker struct {
	Position Coordinate `json:"position"`
	Label    string     `json:"label"`
	Popup    StopPopup  `json:"popup"`
}

// StopPopup - чистая проекция остановки в данные попапа.
// HTML-шаблонизация - забота рендерера, не ядра.
type StopPopup struct {
	Index        int                `json:"index"`
	Address      string             `json:"address"`
	Appointments []PopupAppointment `json:"appointments"`
}

// PopupAppointment - поля встречи, показываемые в попапе
type PopupAppointment struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"subject"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Regarding string    `json:"regarding,omitempty"`
}

// Popup строит проекцию попапа для остановки
func (s *Stop) Popup() StopPopup {
	popup := StopPopup{
		Index:        s.Index,
		Address:      s.Address,
		Appointments: make([]PopupAppointment, 0, len(s.Appointments)),
	}
	for _, a := range s.Appointments {
		pa := PopupAppointment{
			ID:      a.ID,
			Subject: a.Subject,
			Start:   a.ScheduledStart,
			End:     a.ScheduledEnd,
		}
		if a.Regarding != nil {
			pa.Regarding = a.Regarding.Name
		}
		popup.Appointments = append(popup.Appointments, pa)
	}
	return popup
}
