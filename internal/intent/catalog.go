package intent

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// maxCatalogFileSize caps catalog files at 1MB.
const maxCatalogFileSize = 1024 * 1024

// LoadCatalog reads an intent catalog from a YAML file.
//
// Expected shape:
//
//	intents:
//	  - intent: wifi
//	    localized:
//	      en: ["wifi password", "internet password"]
//	      ms: ["kata laluan wifi"]
//	  - intent: pricing
//	    examples: ["how much", "room rate"]
func LoadCatalog(path string) ([]IntentExample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog file: %w", err)
	}
	if info.Size() > maxCatalogFileSize {
		return nil, fmt.Errorf("catalog file too large: %d bytes (max %d)", info.Size(), maxCatalogFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}

	var examples []IntentExample
	if err := k.Unmarshal("intents", &examples); err != nil {
		return nil, fmt.Errorf("unmarshaling catalog: %w", err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("catalog %s contains no intents", path)
	}
	return examples, nil
}

// DefaultCatalog returns the built-in hostel assistant catalog covering the
// guest questions the assistant answers in English, Malay and Chinese.
func DefaultCatalog() []IntentExample {
	return []IntentExample{
		{
			Intent: "wifi",
			Localized: map[string][]string{
				"en": {"wifi password", "internet password", "how do I connect to the wifi", "what is the wifi"},
				"ms": {"kata laluan wifi", "macam mana nak sambung wifi"},
				"zh": {"wifi密码是什么", "怎么连无线网络"},
			},
		},
		{
			Intent: "pricing",
			Localized: map[string][]string{
				"en": {"how much", "room rate", "price per night", "how much is a capsule"},
				"ms": {"berapa harga", "harga bilik satu malam"},
				"zh": {"多少钱", "一晚房价多少"},
			},
		},
		{
			Intent: "check_in",
			Localized: map[string][]string{
				"en": {"what time is check in", "can I check in early", "early check in"},
				"ms": {"pukul berapa boleh daftar masuk", "boleh check in awal"},
				"zh": {"几点可以入住", "可以提前入住吗"},
			},
		},
		{
			Intent: "check_out",
			Localized: map[string][]string{
				"en": {"what time is check out", "late check out", "can I leave my bags after checkout"},
				"ms": {"pukul berapa daftar keluar", "boleh check out lewat"},
				"zh": {"几点退房", "可以延迟退房吗"},
			},
		},
		{
			Intent: "facilities",
			Localized: map[string][]string{
				"en": {"is there a kitchen", "do you have laundry", "where is the shower"},
				"ms": {"ada dapur tak", "ada mesin basuh"},
				"zh": {"有厨房吗", "有洗衣机吗"},
			},
		},
		{
			Intent: "booking",
			Localized: map[string][]string{
				"en": {"I want to book a capsule", "do you have availability tonight", "reserve a bed"},
				"ms": {"saya nak tempah katil", "ada kekosongan malam ini"},
				"zh": {"我想订一个舱位", "今晚还有空位吗"},
			},
		},
		{
			Intent: "complaint",
			Localized: map[string][]string{
				"en": {"my room is dirty", "the aircon is not working", "too noisy, I cannot sleep"},
				"ms": {"bilik saya kotor", "penghawa dingin rosak"},
				"zh": {"房间很脏", "空调坏了"},
			},
		},
	}
}
