package model

// Dome represents a planetarium dome.  Its seating is a rectangular
// grid of Rows rows with SeatsInRow seats each; rows and seats are
// numbered from 1.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the dome.
//  Rows       – number of seating rows.
//  SeatsInRow – number of seats in every row.
type Dome struct {
    ID         int64  // domes.id
    Name       string // domes.name
    Rows       int    // domes.num_rows
    SeatsInRow int    // domes.seats_in_row
}

// Capacity is the total number of seats in the dome.
func (d Dome) Capacity() int { return d.Rows * d.SeatsInRow }

// Contains reports whether (row, seat) lies inside the dome's grid.
func (d Dome) Contains(row, seat int) bool {
    return row >= 1 && row <= d.Rows && seat >= 1 && seat <= d.SeatsInRow
}
