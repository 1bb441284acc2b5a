package handlers

import (
	"log"

	events "PhotoReveal/constants/events"
	"PhotoReveal/services/coordinator"
	"PhotoReveal/services/store"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// Appends a batch of uploaded photos to the session. Entries missing a url
// are dropped, not fatal; the room gets the full refreshed photo list.
func HandleUploadPhotos(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": "Invalid photos array"})
			return
		}

		code := stringField(payload, "code")
		raw, ok := payload["photos"].([]interface{})
		if !ok || len(raw) == 0 {
			client.Emit(events.Error, gin.H{"message": "Invalid photos array"})
			return
		}

		photos := make([]store.NewPhoto, 0, len(raw))
		for _, entry := range raw {
			obj, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			photos = append(photos, store.NewPhoto{
				URL:   stringField(obj, "url"),
				Title: stringField(obj, "title"),
			})
		}

		log.Printf("[UPLOAD] session=%s photos=%d socket=%s", code, len(photos), client.Id())

		if err := coord.UploadPhotos(code, photos); err != nil {
			emitError(client, "UPLOAD", err)
			return
		}
	}
}

// Deletes a single photo, clearing the assignment of whoever holds it.
func HandleRemovePhoto(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": "Invalid remove request"})
			return
		}

		code := stringField(payload, "code")
		photoID := stringField(payload, "photoId")
		log.Printf("[REMOVE-PHOTO] session=%s photo=%s", code, photoID)

		if err := coord.RemovePhoto(code, photoID); err != nil {
			emitError(client, "REMOVE-PHOTO", err)
			return
		}
	}
}
