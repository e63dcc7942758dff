// Package services holds the business logic between controllers and repositories.
//
// Services defined in this package:
//   - AuthService: registration, login and the caller's profile
//   - CourseService: catalog maintenance
//   - RegistrationService: every change to the enrollment ledger
//   - RecommendationService: recommendations, schedule fit and load analysis
//   - AnalyticsService: faculty and admin statistics, anomaly detection and ledger audit
//   - UserService: user administration
package services
