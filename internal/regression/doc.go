// Package regression fits the per-station ridership model and measures the
// event effect.
//
// The model is ordinary least squares solved through a thin SVD, returning the
// minimum-norm solution when the design matrix is rank deficient. Fitting an
// intercept is done by centering X and y. The intercept toggle is chosen by
// contiguous k-fold cross-validation.
//
// Analyze predicts two views of the same rows: the training view as built and
// a counterfactual view with every event column set to zero. The metrics
// reported against the counterfactual view measure how far observed ridership
// departs from a no-event baseline; they are not a generalization estimate,
// since no rows are held out. This is intentional.
package regression
