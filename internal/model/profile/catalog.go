package profile

// VoiceInfo describes one selectable voice of a TTS provider.
type VoiceInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Voices lists the well-known voices of a provider. Providers outside the
// known set expose a single generic default entry.
func Voices(p Provider) []VoiceInfo {
	switch p {
	case ProviderEdge:
		return []VoiceInfo{
			{ID: "en-US-AvaMultilingualNeural", Name: "Ava (English US, Multilingual)", Language: "en-US"},
			{ID: "en-US-AndrewMultilingualNeural", Name: "Andrew (English US, Multilingual)", Language: "en-US"},
			{ID: "en-US-EmmaMultilingualNeural", Name: "Emma (English US, Multilingual)", Language: "en-US"},
			{ID: "en-US-BrianMultilingualNeural", Name: "Brian (English US, Multilingual)", Language: "en-US"},
			{ID: "en-GB-SoniaNeural", Name: "Sonia (English UK)", Language: "en-GB"},
			{ID: "en-GB-RyanNeural", Name: "Ryan (English UK)", Language: "en-GB"},
			{ID: "zh-CN-XiaoxiaoNeural", Name: "Xiaoxiao (Chinese)", Language: "zh-CN"},
			{ID: "zh-CN-YunxiNeural", Name: "Yunxi (Chinese)", Language: "zh-CN"},
			{ID: "ja-JP-NanamiNeural", Name: "Nanami (Japanese)", Language: "ja-JP"},
			{ID: "ja-JP-KeitaNeural", Name: "Keita (Japanese)", Language: "ja-JP"},
		}
	case ProviderAzure:
		return []VoiceInfo{
			{ID: "en-US-AshleyNeural", Name: "Ashley (English US)", Language: "en-US"},
			{ID: "en-US-BrandonNeural", Name: "Brandon (English US)", Language: "en-US"},
			{ID: "zh-CN-XiaoxiaoNeural", Name: "Xiaoxiao (Chinese)", Language: "zh-CN"},
		}
	case ProviderMelo:
		return []VoiceInfo{
			{ID: "EN-Default", Name: "English Default", Language: "EN"},
			{ID: "EN-US", Name: "English US", Language: "EN"},
			{ID: "EN-BR", Name: "English British", Language: "EN"},
			{ID: "EN-AU", Name: "English Australian", Language: "EN"},
			{ID: "ZH", Name: "Chinese", Language: "ZH"},
		}
	}
	return []VoiceInfo{{ID: "default", Name: "Default " + string(p) + " voice", Language: "auto"}}
}
