package notification

import (
	"fmt"
)

// NotificationManager routes notices to the notifiers registered for each
// delivery system, using the templates registered per notice type.
type NotificationManager struct {
	notifiers            map[NotificationSystem]Notifier
	notificationRegistry map[NoticeType]map[NotificationSystem]NoticeTemplate
}

// NewNotificationManager creates a NotificationManager and applies the
// given options.
func NewNotificationManager(opts ...NotificationManagerOption) (*NotificationManager, error) {
	nm := &NotificationManager{
		notifiers:            make(map[NotificationSystem]Notifier),
		notificationRegistry: make(map[NoticeType]map[NotificationSystem]NoticeTemplate),
	}

	for _, opt := range opts {
		if err := opt(nm); err != nil {
			return nil, err
		}
	}

	return nm, nil
}

// RegisterNotifier registers a notifier for a delivery system.
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.notifiers[system] = notifier
}

// RegisterNotification adds a notice template for a (type, system) pair.
func (nm *NotificationManager) RegisterNotification(notifType NoticeType, system NotificationSystem, template NoticeTemplate) error {
	if notifType == "" || system == "" {
		return fmt.Errorf("invalid input: notification type and system cannot be empty")
	}

	if _, exists := nm.notificationRegistry[notifType]; !exists {
		nm.notificationRegistry[notifType] = make(map[NotificationSystem]NoticeTemplate)
	}

	nm.notificationRegistry[notifType][system] = template
	return nil
}

// Send delivers a notice of the given type over the given system.
func (nm *NotificationManager) Send(notifType NoticeType, system NotificationSystem, notification NotificationData) error {
	systemTemplates, exists := nm.notificationRegistry[notifType]
	if !exists {
		return fmt.Errorf("no templates registered for notification type: %s", notifType)
	}

	template, exists := systemTemplates[system]
	if !exists {
		return fmt.Errorf("no template registered for system: %s under notification type: %s", system, notifType)
	}

	notifier, exists := nm.notifiers[system]
	if !exists {
		return fmt.Errorf("no notifier registered for system: %s", system)
	}

	return notifier.Send(notifType, notification, template)
}
