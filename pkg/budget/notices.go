package budget

import (
	"fmt"

	"github.com/dtnitsch/notion-clipper/models"
)

func noticeBlock(icon, color, text string, omitted int) models.Block {
	return models.Block{
		Kind:   models.NoticeBlock,
		Notice: &models.Notice{Icon: icon, Color: color, Text: text, Omitted: omitted},
	}
}

// TruncationNotice reports blocks dropped to fit the page budget.
func TruncationNotice(omitted int) models.Block {
	text := fmt.Sprintf("Content truncated: %d more blocks were omitted to stay within the page limit. Open the original source to read the rest.", omitted)
	return noticeBlock("✂️", "yellow_background", text, omitted)
}

// ImageFailureNotice reports images removed after the API refused them.
func ImageFailureNotice(failed int) models.Block {
	text := fmt.Sprintf("%d image(s) could not be attached and were left out. Open the original source to view them.", failed)
	return noticeBlock("🖼️", "gray_background", text, 0)
}

// ErrorNotice wraps a free-form message, e.g. a partial extraction failure.
func ErrorNotice(message string) models.Block {
	return noticeBlock("⚠️", "red_background", message, 0)
}
