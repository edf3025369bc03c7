package teaching

var entries = []Entry{
	{
		Key:   "chudo",
		Title: "中道",
		Body: `お釈迦さまは、厳しい苦行も贅沢な暮らしも悟りには至らないと気づかれました。
その両極端を離れた生き方を「中道」と呼びます。

仕事も休息も、どちらかに偏ると心と体は疲れてしまいます。
頑張りすぎていないか、怠けすぎていないか、ときどき立ち止まって確かめてみましょう。

**ちょうど良い**ところを探し続けること、それ自体が中道の歩みです。`,
	},
	{
		Key:   "ichigo-ichie",
		Title: "一期一会",
		Body: `茶の湯の心から生まれた言葉で、「この出会いは一生に一度きり」という意味です。

毎日顔を合わせる家族や同僚でも、今日と同じ時間は二度と訪れません。
目の前の人との時間を、心を込めて大切にしましょう。`,
	},
	{
		Key:   "mujo",
		Title: "諸行無常",
		Body: `この世のすべては移り変わり、同じ姿にとどまるものはありません。

無常は寂しさを表すだけの言葉ではありません。
辛いことも永遠には続かない、という希望の教えでもあります。
変化を受け入れ、今できることに心を向けましょう。`,
	},
	{
		Key:   "inga",
		Title: "因果応報",
		Body: `すべての結果には原因があります。
良い行いは良い結果を、悪い行いは苦しみを生みます。

小さな親切も、巡り巡って自分のもとへ返ってきます。
結果を急がず、今日の一つの行いを丁寧に積み重ねましょう。`,
	},
	{
		Key:   "jihi",
		Title: "慈悲",
		Body: `「慈」は人に楽しみを与える心、「悲」は人の苦しみを取り除こうとする心です。

慈悲はまず自分自身に向けることから始まります。
自分に優しくできる人は、周りの人にも自然と優しくなれます。`,
	},
	{
		Key:   "chisoku",
		Title: "知足",
		Body: `「足るを知る」。今あるものに満足し、感謝する心です。

足りないものを数えると心は渇き、今あるものを数えると心は満たされます。
一日の終わりに、ありがたかったことを三つ思い出してみましょう。`,
	},
	{
		Key:   "ima-koko",
		Title: "今ここ",
		Body: `過去は過ぎ去り、未来はまだ来ていません。
私たちが生きられるのは「今ここ」だけです。

食事をするときは味わうことに、歩くときは足の感覚に心を向けてみましょう。
今この瞬間を丁寧に生きることが、安らぎへの道です。`,
	},
	{
		Key:   "muga",
		Title: "無我",
		Body: `「これが私だ」と固く握りしめているものも、実は変わり続けています。

執着を手放すと、心は驚くほど軽くなります。
こだわりすぎず、流れに身を任せることも大切です。`,
	},
	{
		Key:   "ninniku",
		Title: "忍辱",
		Body: `六波羅蜜の一つで、困難や侮辱に耐え、怒りに振り回されない心の強さです。

耐えることは我慢して心を閉ざすことではありません。
今の苦労はきっと成長の糧になる、と静かに受け止める力です。`,
	},
	{
		Key:   "fuse",
		Title: "布施",
		Body: `布施とは、見返りを求めずに与えることです。

お金や物がなくてもできる「無財の七施」という教えがあります。
優しいまなざし、笑顔、温かい言葉、それらも立派な布施です。`,
	},
	{
		Key:   "shoken",
		Title: "正見",
		Body: `八正道の最初に置かれる、物事をありのままに正しく見ることです。

私たちは先入観や思い込みを通して世界を見がちです。
一度立ち止まり、事実と自分の解釈を分けて眺めてみましょう。`,
	},
	{
		Key:   "kutai",
		Title: "苦諦",
		Body: `四諦の第一は「人生には苦がある」と認めることです。

仏教は苦の原因を執着に見いだしました。
苦しみから目をそらさず、その原因を見つめ、手放すことで心は自由になります。`,
	},
	{
		Key:   "engi",
		Title: "縁起",
		Body: `すべてのものは、互いに関わり合い、支え合って存在しています。

一杯のご飯の向こうには、数えきれない人々と自然の恵みがあります。
あなたの笑顔もまた、誰かの幸せにつながっているかもしれません。`,
	},
	{
		Key:   "ku",
		Title: "色即是空",
		Body: `般若心経の一節です。形あるものには固定した実体がない、という教えです。

決めつけを手放すと、物事の新しい面が見えてきます。
柔軟な心で変化を受け入れていきましょう。`,
	},
	{
		Key:   "shojin",
		Title: "精進",
		Body: `精進とは、怠らず努力を続けることです。

大きな一歩でなくてかまいません。
一歩ずつでも前に進むこと、その積み重ねがやがて大きな実りになります。`,
	},
}

var rotation = []Daily{
	{Key: "chudo", Text: `おはようございます。

仏教の「中道」という教えがあります。極端に偏らない生き方です。
頑張りすぎず、怠けすぎず、ちょうど良いバランスを心がけましょう。

今日も心穏やかに過ごしましょう。`},
	{Key: "ichigo-ichie", Text: `おはようございます。

「一期一会」- 今日の出会いは一生に一度きりかもしれません。
目の前の人との時間を大切に、心を込めて接しましょう。

今日も心穏やかに過ごしましょう。`},
	{Key: "mujo", Text: `おはようございます。

仏教では「諸行無常」といい、すべては変化していきます。
辛いことも永遠には続きません。今を受け入れて前を向きましょう。

今日も心穏やかに過ごしましょう。`},
	{Key: "inga", Text: `おはようございます。

「因果応報」- 良い行いは良い結果を生みます。
小さな親切が、巡り巡って自分に返ってきます。

今日も心穏やかに過ごしましょう。`},
	{Key: "jihi", Text: `おはようございます。

仏教の「慈悲」とは、思いやりの心です。
まず自分に優しく、そして周りの人にも優しくしましょう。

今日も心穏やかに過ごしましょう。`},
	{Key: "chisoku", Text: `おはようございます。

「知足」- 今あるものに満足し感謝する心です。
足りないものより、今あるものに目を向けてみましょう。

今日も心穏やかに過ごしましょう。`},
	{Key: "ima-koko", Text: `おはようございます。

仏教では「今ここ」を大切にします。
過去や未来ではなく、今この瞬間を生きることが幸せへの道です。

今日も心穏やかに過ごしましょう。`},
	{Key: "muga", Text: `おはようございます。

「無我」- 執着を手放すと心が軽くなります。
こだわりすぎず、流れに身を任せることも大切です。

今日も心穏やかに過ごしましょう。`},
	{Key: "ninniku", Text: `おはようございます。

「忍辱」- 困難に耐える心の強さです。
今の苦労は、必ず成長の糧になります。

今日も心穏やかに過ごしましょう。`},
	{Key: "fuse", Text: `おはようございます。

「布施」とは、見返りを求めない与える心です。
笑顔や優しい言葉も、立派な布施になります。

今日も心穏やかに過ごしましょう。`},
	{Key: "shoken", Text: `おはようございます。

「正見」- 物事を正しく見る目を持ちましょう。
先入観を捨てて、ありのままを受け入れることが大切です。

今日も心穏やかに過ごしましょう。`},
	{Key: "kutai", Text: `おはようございます。

仏教では「苦」の原因は執着だと教えます。
手放すことで、心は自由になり軽くなります。

今日も心穏やかに過ごしましょう。`},
	{Key: "engi", Text: `おはようございます。

「縁起」- すべては繋がり合って存在しています。
あなたの笑顔が、誰かの幸せに繋がっているかもしれません。

今日も心穏やかに過ごしましょう。`},
	{Key: "ku", Text: `おはようございます。

「色即是空」- 固定的なものは何もありません。
柔軟な心で、変化を受け入れていきましょう。

今日も心穏やかに過ごしましょう。`},
	{Key: "shojin", Text: `おはようございます。

「精進」- 一歩ずつでも前に進むことが大切です。
小さな努力の積み重ねが、大きな成果につながります。

今日も心穏やかに過ごしましょう。`},
}
