// Package entity holds the progress read model: per learner stats, activity and the
// leaderboard.
package entity
