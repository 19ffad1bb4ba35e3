package model

// AstronomyShow is a programme that can be scheduled into show
// sessions.  Themes holds the names of the attached show themes and is
// only filled by queries that join them.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – show title.
//  Description – free text description.
//  Themes      – theme names, ordered by name.
type AstronomyShow struct {
    ID          int64    // astronomy_shows.id
    Title       string   // astronomy_shows.title
    Description string   // astronomy_shows.description
    Themes      []string // show_themes.name via astronomy_show_themes
}

// ShowTheme is a label such as "Galaxies" that groups shows.
type ShowTheme struct {
    ID   int64  // show_themes.id
    Name string // show_themes.name
}
