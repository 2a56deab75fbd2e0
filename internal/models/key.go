// models содержит доменные модели рукопожатия и схему обмена с API вендора.
package models

// KeyMaterial — публичный ключ сессии, выданный вендором.
//
// Принадлежит одному рукопожатию: не кэшируется и не переиспользуется,
// каждое рукопожатие запрашивает ключ заново.
type KeyMaterial struct {
	// PublicKey — RSA-ключ в DER, закодированный base64 (как пришёл по сети).
	PublicKey string
	// VersionPrefix — тег поколения ключа, которым префиксуется шифртекст.
	VersionPrefix string
	// Algorithm и KeyType — справочные метаданные, логикой не используются.
	Algorithm string
	KeyType   string
}
