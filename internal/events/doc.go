// Package events turns scraped box scores into per-date event attendance tables.
//
// Normalization is fail-soft: a field that cannot be parsed becomes nil and the
// record still flows through. Each normalized game carries five mutually
// exclusive attendance columns:
//
//	<prefix>_fri, <prefix>_sat, <prefix>_sun,
//	<prefix>_day_weekday(nofri), <prefix>_night_weekday(nofri)
//
// At most one of them is non-zero and it equals the game's attendance. Day/night
// splitting only applies Monday through Thursday; Friday and weekend games are
// always attributed to their day column.
//
// Project filters normalized games to one venue and emits one row per game.
// Two games on the same date produce two rows.
package events
