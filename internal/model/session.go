package model

import "time"

// ShowSession is one scheduled showing of an astronomy show in a dome.
// The dome is embedded by value so callers always have the geometry
// at hand for bounds checks and capacity.
//
// Fields:
//  ID          – primary key identifier.
//  ShowID      – astronomy show being shown.
//  ShowTitle   – title of that show (denormalised for listings).
//  Dome        – dome hosting the session.
//  ShowTime    – start time, UTC.
//  TicketsSold – committed tickets at read time; only set by
//                availability queries.
type ShowSession struct {
    ID          int64     // show_sessions.id
    ShowID      int64     // show_sessions.astronomy_show_id
    ShowTitle   string    // astronomy_shows.title
    Dome        Dome      // domes row referenced by show_sessions.dome_id
    ShowTime    time.Time // show_sessions.show_time
    TicketsSold int       // COUNT(tickets)
}

// Available returns the seats still free, never below zero.
func (s ShowSession) Available() int {
    if n := s.Dome.Capacity() - s.TicketsSold; n > 0 {
        return n
    }
    return 0
}
