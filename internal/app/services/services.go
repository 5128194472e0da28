package services

// Services defined in this package:
// - AuthService: registration, login, logout and self-service profile
// - ApplicationService: drafts, submission and the applicant profile
// - ReviewService: single and bulk admin decisions
// - AdminApplicationService: admin listing, search and detail
// - DocumentService: document retrieval for owners and admins
// - OfferLetterService: offer letter rendering and archiving
// - StatsService: reporting and the admin dashboard
// - UserService: admin user management
