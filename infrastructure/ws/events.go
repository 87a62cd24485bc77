package ws

import (
	"casechat/domain/event"
	"casechat/services"
)

func eventMessageSent(routed services.RoutedMessage) event.MessageSent {
	return event.MessageSent{
		Message:      routed.Message,
		SenderName:   routed.SenderName,
		ReceiverName: routed.ReceiverName,
	}
}

func eventMessageError(kind, message string) event.MessageError {
	return event.MessageError{Kind: kind, Message: message}
}
