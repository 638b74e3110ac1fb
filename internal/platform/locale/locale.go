// Package locale holds the bot's reply texts.
package locale

import (
	"fmt"

	"golang.org/x/text/language"
)

// Key identifies a reply text.
type Key string

const (
	Welcome            Key = "welcome"
	InvalidCommand     Key = "invalid_command"
	NotSupported       Key = "not_supported"
	ChooseOption       Key = "choose_option"
	InvalidOption      Key = "invalid_option"
	SelectOptionFirst  Key = "select_option_first"
	PromptPhotoLink    Key = "prompt_photo_link"
	PromptVideoLink    Key = "prompt_video_link"
	ShortLinkFailed    Key = "short_link_failed"
	InvalidLink        Key = "invalid_link"
	PhotoCaption       Key = "photo_caption"
	PhotoDocCaption    Key = "photo_document_caption"
	PhotoFailed        Key = "photo_failed"
	VideoCaption       Key = "video_caption"
	VideoNotFound      Key = "video_not_found"
	VideoFailed        Key = "video_failed"
	PromptYouTubeLink  Key = "prompt_youtube_link"
	ChooseQuality      Key = "choose_quality"
	NoQualityFound     Key = "no_quality_found"
	InvalidQuality     Key = "invalid_quality"
	DownloadingQuality Key = "downloading_quality"
	QualityReady       Key = "quality_ready"
	YouTubeFailed      Key = "youtube_failed"
	YouTubeListFailed  Key = "youtube_list_failed"

	ButtonYouTube    Key = "button_youtube"
	ButtonTwitter    Key = "button_twitter"
	ButtonInstagram  Key = "button_instagram"
	ButtonPinterest  Key = "button_pinterest"
	ButtonSpotify    Key = "button_spotify"
	ButtonTidal      Key = "button_tidal"
	ButtonSoundCloud Key = "button_soundcloud"
	ButtonAppleMusic Key = "button_apple_music"
	ButtonPhoto      Key = "button_photo"
	ButtonVideo      Key = "button_video"
)

var (
	persian = language.Persian
	english = language.English

	matcher = language.NewMatcher([]language.Tag{persian, english})
)

var catalog = map[language.Tag]map[Key]string{
	persian: {
		Welcome:            "به ربات ما خوش آمدید! لطفاً یکی از گزینه‌های زیر را انتخاب کنید:",
		InvalidCommand:     "دستور نامعتبر است! لطفاً از /start استفاده کنید.",
		NotSupported:       "این گزینه هنوز پشتیبانی نمی‌شود.",
		ChooseOption:       "لطفاً یکی از گزینه‌های زیر را انتخاب کنید:",
		InvalidOption:      "گزینه انتخاب‌شده نامعتبر است. لطفاً دوباره تلاش کنید.",
		SelectOptionFirst:  "لطفاً ابتدا از منوی پینترست، گزینه مورد نظر خود را انتخاب کنید.",
		PromptPhotoLink:    "لینک پست مد نظر خود را وارد کنید:",
		PromptVideoLink:    "لینک ویدیوی مد نظر خود را وارد کنید:",
		ShortLinkFailed:    "خطا در تبدیل لینک کوتاه. لطفاً لینک کامل پینترست را ارسال کنید.",
		InvalidLink:        "لینک ارسال‌شده معتبر نیست. لطفاً لینک صحیح وارد کنید.",
		PhotoCaption:       "📷 عکس با موفقیت دانلود شد و آماده است! \n🔙 برای برگشت به منوی اصلی روی /start کلیک کنید",
		PhotoDocCaption:    "📂 فایل عکس با کیفیت اصلی برای شما ارسال شد. \n🔙 برای برگشت به منوی اصلی روی /start کلیک کنید",
		PhotoFailed:        "خطایی در دانلود یا ارسال عکس رخ داد. لطفاً دوباره تلاش کنید.",
		VideoCaption:       "🎥 ویدیوی شما با موفقیت دانلود شد!",
		VideoNotFound:      "ویدیوی مد نظر شما قابل دانلود نیست یا لینک معتبر نیست.",
		VideoFailed:        "خطایی در دانلود یا ارسال ویدیو رخ داد. لطفاً دوباره تلاش کنید.",
		PromptYouTubeLink:  "لینک ویدیوی یوتیوب را ارسال کنید:",
		ChooseQuality:      "لطفاً یکی از کیفیت‌های زیر را انتخاب کنید:",
		NoQualityFound:     "کیفیتی برای این ویدیو یافت نشد.",
		InvalidQuality:     "کیفیت انتخاب‌شده نامعتبر است.",
		DownloadingQuality: "در حال دانلود ویدیو با کیفیت %s. لطفاً صبر کنید...",
		QualityReady:       "ویدیو با کیفیت %s آماده است!",
		YouTubeFailed:      "مشکلی در دانلود یا ارسال ویدیو رخ داد.",
		YouTubeListFailed:  "خطایی در پردازش ویدیو رخ داد.",

		ButtonYouTube:    "🎥 دانلود از یوتیوب 🎥",
		ButtonTwitter:    "🐦 دانلود از توییتر 🐦",
		ButtonInstagram:  "📸 دانلود از اینستاگرام 📸",
		ButtonPinterest:  "📌 دانلود از پینترست 📌",
		ButtonSpotify:    "🎵 دانلود از اسپاتیفای 🎵",
		ButtonTidal:      "💎 دانلود از تیدال 💎",
		ButtonSoundCloud: "🎧 دانلود از ساندکلاد 🎧",
		ButtonAppleMusic: "🍏 دانلود از اپل موزیک 🍏",
		ButtonPhoto:      "📷 دانلود عکس",
		ButtonVideo:      "🎥 دانلود فیلم",
	},
	english: {
		Welcome:            "Welcome! Please choose one of the options below:",
		InvalidCommand:     "Invalid command! Please use /start.",
		NotSupported:       "This option is not supported yet.",
		ChooseOption:       "Please choose one of the options below:",
		InvalidOption:      "The selected option is invalid. Please try again.",
		SelectOptionFirst:  "Please select an option from the Pinterest menu first.",
		PromptPhotoLink:    "Send the link of the post:",
		PromptVideoLink:    "Send the link of the video:",
		ShortLinkFailed:    "Could not expand the short link. Please send the full Pinterest link.",
		InvalidLink:        "The link is not valid. Please send a correct link.",
		PhotoCaption:       "📷 Your photo is ready!\n🔙 Tap /start to return to the main menu",
		PhotoDocCaption:    "📂 Here is the photo file in original quality.\n🔙 Tap /start to return to the main menu",
		PhotoFailed:        "Something went wrong while downloading or sending the photo. Please try again.",
		VideoCaption:       "🎥 Your video is ready!",
		VideoNotFound:      "This video cannot be downloaded or the link is not valid.",
		VideoFailed:        "Something went wrong while downloading or sending the video. Please try again.",
		PromptYouTubeLink:  "Send the YouTube video link:",
		ChooseQuality:      "Please choose one of the qualities below:",
		NoQualityFound:     "No quality was found for this video.",
		InvalidQuality:     "The selected quality is invalid.",
		DownloadingQuality: "Downloading the video in %s. Please wait...",
		QualityReady:       "Your video in %s is ready!",
		YouTubeFailed:      "Something went wrong while downloading or sending the video.",
		YouTubeListFailed:  "Something went wrong while processing the video.",

		ButtonYouTube:    "🎥 YouTube 🎥",
		ButtonTwitter:    "🐦 Twitter 🐦",
		ButtonInstagram:  "📸 Instagram 📸",
		ButtonPinterest:  "📌 Pinterest 📌",
		ButtonSpotify:    "🎵 Spotify 🎵",
		ButtonTidal:      "💎 Tidal 💎",
		ButtonSoundCloud: "🎧 SoundCloud 🎧",
		ButtonAppleMusic: "🍏 Apple Music 🍏",
		ButtonPhoto:      "📷 Download photo",
		ButtonVideo:      "🎥 Download video",
	},
}

// Texts resolves reply texts for one language.
type Texts struct {
	tag      language.Tag
	messages map[Key]string
}

// New returns the texts for lang. Unknown or empty languages get Persian.
func New(lang string) *Texts {
	tag := persian

	if parsed, err := language.Parse(lang); err == nil {
		_, index, confidence := matcher.Match(parsed)
		if confidence != language.No && index == 1 {
			tag = english
		}
	}

	return &Texts{tag: tag, messages: catalog[tag]}
}

func (t *Texts) Language() language.Tag {
	return t.tag
}

// Get returns the text for key, formatted with args when given.
// Missing keys return the key itself so gaps are visible in chat.
func (t *Texts) Get(key Key, args ...any) string {
	msg, ok := t.messages[key]
	if !ok {
		return string(key)
	}

	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}

	return msg
}
