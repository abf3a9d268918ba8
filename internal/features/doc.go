// Package features derives the regression design matrix from an assembled
// station table.
//
// Calendar fields come from the date: year, month, ISO week, day of week
// (Monday=0) and day of year. Week and temperature are squared. Day of week is
// expanded into seven indicators plus seven indicator-by-week interactions;
// month, week and squared week are expanded into one indicator per observed
// value. No reference level is dropped, so the expanded matrix is rank
// deficient whenever an intercept is fit; the regression tolerates that.
//
// The ridership target and the year stay in the output table but are not
// features.
package features
