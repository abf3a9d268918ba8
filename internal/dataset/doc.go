// Package dataset assembles the per-station daily table the regression is fit on.
//
// A station table starts from the warehouse ridership extract, summed per
// service date, and is left-joined on date with the temperature table and the
// station's event columns. Every date of the extract survives the join; a date
// missing from the temperature or event table gets 0 in all joined columns.
//
// Inputs are read into gota dataframes; the per-date sum and the date joins
// run on those frames and the result is converted to a dense Table.
//
// Several event rows may share a date, for example a double-header or games
// at two venues on the same day. A plain left join would then repeat the
// ridership row once per game. Instead the event rows of a date are collapsed
// before the join by a DuplicatePolicy: DuplicateSum adds their attendance
// columns, DuplicateFirst keeps the earliest row. The policy must be named
// explicitly; the shipped configuration uses DuplicateSum. Temperature rows
// sharing a date always keep the first.
package dataset
