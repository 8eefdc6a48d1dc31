package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken, PermanentToken from user.go
// - MoodLog, Recommendation, ModelSnapshot from mood.go
// - VideoSession, SignalingMessage from video.go
// - ChatMessage from chat.go

// Database schema overview:
// 1. users - Managed by cookie-based authentication; handle is auto-generated
// 2. mood_logs - One row per self-reported mood entry, scored by the predictor
// 3. recommendations - Static catalogue keyed by stress band, seeded at startup
// 4. model_snapshots - Serialized predictor weights, newest version wins
// 5. video_sessions - One row per matched peer pair, tracks call lifecycle
// 6. signaling_messages - Opaque WebRTC payloads kept for reconnect replay
// 7. chat_messages - Persisted text chat within a video session
