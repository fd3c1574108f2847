package catalog

// Insert statements, rendered per dialect. epoch, int and datepart are the
// only engine-specific fragments.

const songplayTableInsert = `insert into songplays
(
    start_time, user_id, level, song_id,
    artist_id, session_id, location, user_agent
)
select distinct
    {{epoch "e.ts"}} as start_time,
    {{int "e.userid"}} as user_id,
    e.level,
    s.song_id,
    s.artist_id,
    {{int "e.sessionid"}} as session_id,
    e.location,
    e.useragent as user_agent
from staging_events e
join staging_songs s
    on e.song = s.title
    and e.artist = s.artist_name
where e.page = 'NextSong'
    and e.ts is not null
    and nullif(e.userid, '') is not null
    and s.song_id is not null
    and s.artist_id is not null;`

// The most recent NextSong event of each user wins. Users already present
// are skipped, so a rerun does not refresh their level.
const userTableInsert = `insert into users
(
    user_id, first_name, last_name,
    gender, level
)
select
    {{int "latest.userid"}} as user_id,
    latest.firstname,
    latest.lastname,
    latest.gender,
    latest.level
from (
    select
        e.userid,
        e.firstname,
        e.lastname,
        e.gender,
        e.level,
        row_number() over (partition by e.userid order by e.ts desc) as recency
    from staging_events e
    where e.page = 'NextSong'
        and e.ts is not null
        and nullif(e.userid, '') is not null
) latest
where latest.recency = 1
    and not exists (
        select 1 from users u where u.user_id = {{int "latest.userid"}}
    );`

const songTableInsert = `insert into songs
(
    song_id, title, artist_id,
    year, duration
)
select
    ranked.song_id,
    ranked.title,
    ranked.artist_id,
    ranked.year,
    ranked.duration
from (
    select
        s.song_id,
        s.title,
        s.artist_id,
        s.year,
        s.duration,
        row_number() over (partition by s.song_id order by s.year desc, s.duration desc) as rn
    from staging_songs s
    where s.song_id is not null
        and s.artist_id is not null
) ranked
where ranked.rn = 1
    and not exists (
        select 1 from songs x where x.song_id = ranked.song_id
    );`

// Artists appear once per song in staging; rows that carry a location are
// preferred.
const artistTableInsert = `insert into artists
(
    artist_id, artist_name, artist_location,
    artist_latitude, artist_longitude
)
select
    ranked.artist_id,
    ranked.artist_name,
    ranked.artist_location,
    ranked.artist_latitude,
    ranked.artist_longitude
from (
    select
        s.artist_id,
        s.artist_name,
        s.artist_location,
        s.artist_latitude,
        s.artist_longitude,
        row_number() over (
            partition by s.artist_id
            order by case when nullif(s.artist_location, '') is null then 1 else 0 end, s.song_id
        ) as rn
    from staging_songs s
    where s.artist_id is not null
) ranked
where ranked.rn = 1
    and not exists (
        select 1 from artists x where x.artist_id = ranked.artist_id
    );`

const timeTableInsert = `insert into times
(
    start_time, hour, day, week,
    month, year, weekday
)
select
    t.start_time,
    {{datepart "hour" "t.start_time"}} as hour,
    {{datepart "day" "t.start_time"}} as day,
    {{datepart "week" "t.start_time"}} as week,
    {{datepart "month" "t.start_time"}} as month,
    {{datepart "year" "t.start_time"}} as year,
    {{datepart "weekday" "t.start_time"}} as weekday
from (
    select distinct start_time
    from songplays
) t
where not exists (
    select 1 from times x where x.start_time = t.start_time
);`

type insertTemplate struct {
	name  string
	table string
	text  string
}

var insertTemplates = []insertTemplate{
	{name: "songplay_table_insert", table: "songplays", text: songplayTableInsert},
	{name: "user_table_insert", table: "users", text: userTableInsert},
	{name: "song_table_insert", table: "songs", text: songTableInsert},
	{name: "artist_table_insert", table: "artists", text: artistTableInsert},
	{name: "time_table_insert", table: "times", text: timeTableInsert},
}
