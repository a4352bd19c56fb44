// Package services holds the business logic of the handbook backend.
//
// Services defined in this package:
// - IdentityService: resolves participant references to canonical identities
// - MessageService: send, edit, soft delete, react and read tracking
// - ConversationService: renders a conversation thread for one viewer
// - NotificationService: the per-recipient notification feed
// - PresenceService: last-active tracking and the chat sidebar
// - AnnouncementService: school announcements and their fan-out
//
// NotificationEventHandler runs behind the notifier dispatcher and turns
// message and announcement events into notifications.
package services
