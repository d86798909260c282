package utils

import (
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomHeadNurse 生成某个病区的护士长账号
func GenerateRandomHeadNurse(wardID int64, password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		WardID:       &wardID,
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleHeadNurse,
		IsActive:     true,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

var intensities = []domain.WorkIntensity{
	domain.IntensityHigh,
	domain.IntensityMedium,
	domain.IntensityMedium,
	domain.IntensityLow,
}

// GenerateRandomCapability 大部分护士可以上白班、小夜、大夜，少数是专职护士
func GenerateRandomCapability() domain.ShiftCapability {
	switch r := rand.Intn(20); {
	case r == 0:
		return domain.CanNight
	case r == 1:
		return domain.CanDay
	case r == 2:
		return domain.CanDay | domain.CanEvening
	default:
		return domain.CanDay | domain.CanEvening | domain.CanNight
	}
}

func GenerateRandomNurse(wardID int64) *domain.Nurse {
	return &domain.Nurse{
		WardID:     wardID,
		FullName:   GenerateRandomChineseName(),
		Capability: GenerateRandomCapability(),
		Intensity:  intensities[rand.Intn(len(intensities))],
		IsActive:   true,
	}
}

// GenerateRandomRule 生成一个满足 ValidateRule 的规则
func GenerateRandomRule(wardID int64) *domain.Rule {
	minNight := rand.Intn(2) + 1
	return &domain.Rule{
		WardID:               wardID,
		WeekdayDay:           rand.Intn(3) + 2,
		WeekdayEvening:       rand.Intn(2) + 1,
		WeekdayNight:         rand.Intn(2) + 1,
		WeekendDay:           rand.Intn(2) + 1,
		WeekendEvening:       rand.Intn(2) + 1,
		WeekendNight:         rand.Intn(2) + 1,
		MaxConsecutiveShift:  5,
		MinNightRun:          minNight,
		MaxNightRun:          minNight + rand.Intn(2) + 1,
		OffDaysAfterNightRun: rand.Intn(2) + 1,
		OffDaysAfterMaxShift: rand.Intn(2) + 1,
	}
}

var requestableShifts = []domain.ShiftKind{
	domain.ShiftOff, domain.ShiftOff, domain.ShiftOff,
	domain.ShiftDay, domain.ShiftEvening, domain.ShiftNight,
}

// GenerateRandomShiftRequests 为每个护士随机生成不超过 maxPerNurse 个已通过的排班申请
func GenerateRandomShiftRequests(nurses []*domain.Nurse, year, month int, maxPerNurse int) []*domain.ShiftRequest {
	days := domain.DaysIn(year, month)
	requests := make([]*domain.ShiftRequest, 0)

	for _, nurse := range nurses {
		used := make(map[int]bool)
		for i := rand.Intn(maxPerNurse + 1); i > 0; i-- {
			day := rand.Intn(days) + 1
			kind := requestableShifts[rand.Intn(len(requestableShifts))]
			if used[day] || !nurse.Capability.Has(kind) {
				continue
			}
			used[day] = true

			requests = append(requests, &domain.ShiftRequest{
				WardID:         nurse.WardID,
				NurseID:        nurse.ID,
				Year:           year,
				Month:          month,
				Day:            day,
				RequestedShift: kind,
				Reinforced:     rand.Intn(5) == 0,
				Status:         domain.RequestAccepted,
			})
		}
	}

	return requests
}
