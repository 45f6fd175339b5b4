package model

// PlaybackState is the snapshot of the single process-wide playback record.
// CurrentSong and queue entries are song ids with no referential integrity;
// the state is never persisted and resets on process restart.
type PlaybackState struct {
	IsPlaying   bool    `json:"isPlaying"`
	CurrentSong *int64  `json:"currentSong"`
	Queue       []int64 `json:"queue"`
	RepeatMode  bool    `json:"repeatMode"`
}
