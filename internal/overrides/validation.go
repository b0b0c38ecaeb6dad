package overrides

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"rederly/client/internal/platform/validation"
)

// Topics of this type carry no date ordering rule.
const unorderedTopicTypeID = 2

var (
	dateOrderTag  = "date_order"
	dateOrderText = "Start date cannot be after End or Dead dates"
)

func newFormValidator() *validation.Validator {
	v := validation.New()
	v.Validate.RegisterStructValidation(topicDateOrder, TopicForm{})
	v.RegisterTranslation(dateOrderTag, dateOrderText, false)
	return v
}

// topicDateOrder requires start <= end and start <= dead. Equal dates are allowed and a missing
// dead date is not compared.
func topicDateOrder(sl validator.StructLevel) {
	f := sl.Current().Interface().(TopicForm)
	if f.TopicTypeID == unorderedTopicTypeID || f.StartDate == nil || f.EndDate == nil {
		return
	}
	if f.StartDate.After(*f.EndDate) || (f.DeadDate != nil && f.StartDate.After(*f.DeadDate)) {
		sl.ReportError(f.StartDate, "startDate", "StartDate", dateOrderTag, "")
	}
}

// checkForm validates the part of form matching its kind.
func checkForm(v *validation.Validator, form Form) error {
	switch form.Kind() {
	case KindTopic:
		return v.Check(form.Topic)
	case KindQuestion:
		return v.Check(form.Question)
	}
	return validation.NewError(errors.New("overrides: form must carry exactly one of topic or question"))
}
