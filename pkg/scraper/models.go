package scraper

import "time"

// DefaultFaculty is the faculty name attached to every course; the catalog
// endpoint does not expose faculties.
const DefaultFaculty = "UniVR"

// StudyCourse is a degree programme from the course catalog.
type StudyCourse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FacultyName string `json:"faculty_name"`
	MaxYear     int    `json:"max_year"`
}

// Building is a university site (sede) that owns rooms.
type Building struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CourseYearOption is one selectable year of a course. ParameterValue is the
// opaque token the grid endpoint expects for that year (e.g. "GP004|2").
type CourseYearOption struct {
	Year           int    `json:"year"`
	ParameterValue string `json:"parameter_value"`
	Label          string `json:"label"`
}

// Lesson is one timetable entry of a course week.
type Lesson struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Professor string    `json:"professor"`
	Room      string    `json:"room"`
	Building  string    `json:"building"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"` // "08:30"
	EndTime   string    `json:"end_time"`   // "10:30"
}

// RoomLesson is a booking of a single room on a single day.
type RoomLesson struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Professor  string `json:"professor"`
	CourseName string `json:"course_name"`
	FromTime   string `json:"from_time"`
	ToTime     string `json:"to_time"`
}

// RoomAgenda lists the bookings of one room ordered by start time.
type RoomAgenda struct {
	ID       string       `json:"id"`
	RoomName string       `json:"room_name"`
	Lessons  []RoomLesson `json:"lessons"`
}

// FreeRoomSlot is a maximal interval during which a room has no bookings.
type FreeRoomSlot struct {
	ID       string `json:"id"`
	RoomName string `json:"room_name"`
	FromTime string `json:"from_time"`
	ToTime   string `json:"to_time"`
}

// RoomOccupancy is the result of a room agenda fetch.
type RoomOccupancy struct {
	Agendas   []RoomAgenda   `json:"agendas"`
	FreeSlots []FreeRoomSlot `json:"free_slots"`
}
