package room

import "context"

func (s service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (SendChatMessageResponse, error) {
	rm, err := s.getRoom(params.RoomID)
	if err != nil {
		return SendChatMessageResponse{}, err
	}

	recipients, err := rm.AppendMessage(params.SenderID, params.Message)
	if err != nil {
		return SendChatMessageResponse{}, mapRoomErr(err)
	}

	return SendChatMessageResponse{
		Message:    params.Message,
		Recipients: recipients,
	}, nil
}
