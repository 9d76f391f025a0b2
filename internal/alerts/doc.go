// Package alerts evaluates data-quality rules against each computed report and
// delivers webhook notifications to Slack, Teams, or generic HTTP targets when a
// rule fires or resolves.
package alerts
